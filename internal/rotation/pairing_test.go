package rotation

import "testing"

func TestPairCountsTeammatesAndOpponents(t *testing.T) {
	matches := []Match{
		{TeamA: [2]string{"a", "b"}, TeamB: [2]string{"c", "d"}, Status: StatusCompleted},
		{TeamA: [2]string{"a", "c"}, TeamB: [2]string{"b", "d"}, Status: StatusCompleted},
		{TeamA: [2]string{"c", "d"}, TeamB: [2]string{"a", "b"}, Status: StatusCompleted},
	}

	teammates, opponents := pairCounts("a", "b", matches)
	if teammates != 2 {
		t.Errorf("expected 2 teammate games for a+b, got %d", teammates)
	}
	if opponents != 1 {
		t.Errorf("expected 1 opponent game for a vs b, got %d", opponents)
	}
}

func TestPairCountsIgnoresMatchesMissingAPlayer(t *testing.T) {
	matches := []Match{
		{TeamA: [2]string{"a", "x"}, TeamB: [2]string{"y", "z"}, Status: StatusCompleted},
		{TeamA: [2]string{"b", "x"}, TeamB: [2]string{"y", "z"}, Status: StatusCompleted},
	}

	teammates, opponents := pairCounts("a", "b", matches)
	if teammates != 0 || opponents != 0 {
		t.Errorf("expected (0, 0) when the pair never shares a match, got (%d, %d)",
			teammates, opponents)
	}
}

func TestPairCountsSelfPairIsZero(t *testing.T) {
	matches := []Match{
		{TeamA: [2]string{"a", "b"}, TeamB: [2]string{"c", "d"}, Status: StatusCompleted},
	}

	teammates, opponents := pairCounts("a", "a", matches)
	if teammates != 0 || opponents != 0 {
		t.Errorf("expected (0, 0) for a self-pair, got (%d, %d)", teammates, opponents)
	}
}

func TestPairCountsCountsAllStatuses(t *testing.T) {
	matches := []Match{
		{TeamA: [2]string{"a", "b"}, TeamB: [2]string{"c", "d"}, Status: StatusQueued},
		{TeamA: [2]string{"a", "b"}, TeamB: [2]string{"c", "d"}, Status: StatusPlaying},
		{TeamA: [2]string{"a", "b"}, TeamB: [2]string{"c", "d"}, Status: StatusCompleted},
	}

	teammates, _ := pairCounts("a", "b", matches)
	if teammates != 3 {
		t.Errorf("queued and playing games must count toward pairing history, got %d", teammates)
	}
}
