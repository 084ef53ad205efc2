package ledger

import "testing"

func sum(shares map[string]int64) int64 {
	var s int64
	for _, v := range shares {
		s += v
	}
	return s
}

func TestSplitCostProportionalToGames(t *testing.T) {
	shares := SplitCost(9000, map[string]int{"a": 2, "b": 1})

	if shares["a"] != 6000 || shares["b"] != 3000 {
		t.Errorf("expected 6000/3000 split, got %v", shares)
	}
}

func TestSplitCostSumsExactly(t *testing.T) {
	cases := []struct {
		total int64
		games map[string]int
	}{
		{10000, map[string]int{"a": 3, "b": 3, "c": 3}},
		{9999, map[string]int{"a": 1, "b": 2, "c": 4}},
		{101, map[string]int{"a": 7, "b": 11, "c": 13, "d": 1}},
		{1, map[string]int{"a": 5, "b": 5}},
	}
	for _, tc := range cases {
		shares := SplitCost(tc.total, tc.games)
		if got := sum(shares); got != tc.total {
			t.Errorf("total %d games %v: shares sum to %d: %v", tc.total, tc.games, got, shares)
		}
	}
}

func TestSplitCostRemainderGoesToLargestFraction(t *testing.T) {
	// 100 over weights 1,1,1: everyone gets 33 and the leftover cent goes to
	// the lowest ID because the fractions tie.
	shares := SplitCost(100, map[string]int{"a": 1, "b": 1, "c": 1})

	if shares["a"] != 34 || shares["b"] != 33 || shares["c"] != 33 {
		t.Errorf("expected 34/33/33 with the extra cent on the lowest ID, got %v", shares)
	}
}

func TestSplitCostZeroGamesSplitsEvenly(t *testing.T) {
	shares := SplitCost(9000, map[string]int{"a": 0, "b": 0, "c": 0})

	for id, v := range shares {
		if v != 3000 {
			t.Errorf("expected even 3000 share for %s, got %d", id, v)
		}
	}
	if sum(shares) != 9000 {
		t.Errorf("shares must sum to the total, got %d", sum(shares))
	}
}

func TestSplitCostPlayerWithZeroGamesPaysNothing(t *testing.T) {
	shares := SplitCost(8000, map[string]int{"a": 4, "b": 4, "c": 0})

	if shares["c"] != 0 {
		t.Errorf("player with no games must pay nothing, got %d", shares["c"])
	}
	if shares["a"] != 4000 || shares["b"] != 4000 {
		t.Errorf("expected 4000/4000 for the players who played, got %v", shares)
	}
}

func TestSplitCostNoPlayers(t *testing.T) {
	if shares := SplitCost(5000, nil); len(shares) != 0 {
		t.Errorf("expected empty result for no players, got %v", shares)
	}
}

func TestSplitCostDeterministic(t *testing.T) {
	games := map[string]int{"a": 1, "b": 1, "c": 1, "d": 1, "e": 1, "f": 1, "g": 1}
	first := SplitCost(1000, games)
	for i := 0; i < 20; i++ {
		again := SplitCost(1000, games)
		for id, v := range first {
			if again[id] != v {
				t.Fatalf("run %d: share for %s changed from %d to %d", i, id, v, again[id])
			}
		}
	}
}
