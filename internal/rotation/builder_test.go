package rotation

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// roster builds n players with IDs p0, p1, ... and zero lifetime games.
func roster(n int) []Player {
	players := make([]Player, n)
	for i := range players {
		players[i] = Player{ID: fmt.Sprintf("p%d", i)}
	}
	return players
}

// usageFromQueue replays a queue and returns per-player placement counts.
func usageFromQueue(players []Player, queue []Candidate) map[string]int {
	usage := make(map[string]int, len(players))
	for _, p := range players {
		usage[p.ID] = 0
	}
	for _, c := range queue {
		for _, id := range c.players() {
			usage[id]++
		}
	}
	return usage
}

func assertWellFormed(t *testing.T, queue []Candidate) {
	t.Helper()
	for i, c := range queue {
		seen := map[string]bool{}
		for _, id := range c.players() {
			if id == "" {
				t.Fatalf("queue[%d] has an empty player id", i)
			}
			if seen[id] {
				t.Fatalf("queue[%d] repeats player %s", i, id)
			}
			seen[id] = true
		}
	}
}

func TestBuildFourPlayersEmptyHistoryYieldsOneGame(t *testing.T) {
	// Scenario: with exactly one possible 4-subset, the builder commits one
	// game and then exhausts — it never re-queues the same four players.
	queue, err := Build(roster(4), nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("expected queue of length 1 for 4 players, got %d", len(queue))
	}
	assertWellFormed(t, queue)
}

func TestBuildFewerThanFourPlayersYieldsEmptyQueue(t *testing.T) {
	for n := 0; n < 4; n++ {
		queue, err := Build(roster(n), nil, 3)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(queue) != 0 {
			t.Errorf("n=%d: expected empty queue, got %d games", n, len(queue))
		}
	}
}

func TestBuildFivePlayersRotatesTheBenchedPlayerIn(t *testing.T) {
	players := roster(5)
	queue, err := Build(players, nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("expected 3 games, got %d", len(queue))
	}
	assertWellFormed(t, queue)

	// Round 1 ties everywhere, so canonical order picks the first four.
	round1 := map[string]bool{}
	for _, id := range queue[0].players() {
		round1[id] = true
	}
	for _, id := range []string{"p0", "p1", "p2", "p3"} {
		if !round1[id] {
			t.Errorf("expected round 1 to field %s, got %v", id, queue[0])
		}
	}

	// Round 2 must include the player benched in round 1.
	round2 := map[string]bool{}
	for _, id := range queue[1].players() {
		round2[id] = true
	}
	if !round2["p4"] {
		t.Errorf("expected round 2 to include the benched player p4, got %v", queue[1])
	}
}

func TestBuildBoundedLength(t *testing.T) {
	queue, err := Build(roster(8), nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("expected exactly 3 games for 8 players, got %d", len(queue))
	}
	assertWellFormed(t, queue)
}

func TestBuildDeterministicAcrossInputOrder(t *testing.T) {
	players := roster(7)
	history := []Match{
		{TeamA: [2]string{"p0", "p1"}, TeamB: [2]string{"p2", "p3"}, Status: StatusCompleted},
		{TeamA: [2]string{"p4", "p5"}, TeamB: [2]string{"p6", "p0"}, Status: StatusCompleted},
	}

	first, err := Build(players, history, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same inputs again.
	second, err := Build(players, history, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different queues:\n%v\n%v", first, second)
	}

	// Reversed active list: canonicalization makes the order irrelevant.
	reversed := make([]Player, len(players))
	for i, p := range players {
		reversed[len(players)-1-i] = p
	}
	third, err := Build(reversed, history, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, third) {
		t.Errorf("permuted active list changed the queue:\n%v\n%v", first, third)
	}
}

func TestBuildFairnessSpreadAtFullQueue(t *testing.T) {
	for _, n := range []int{5, 6, 7, 8} {
		players := roster(n)
		queue, err := Build(players, nil, 3)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(queue) != 3 {
			t.Fatalf("n=%d: expected a full queue, got %d", n, len(queue))
		}

		usage := usageFromQueue(players, queue)
		min, max := -1, -1
		for _, u := range usage {
			if min == -1 || u < min {
				min = u
			}
			if u > max {
				max = u
			}
		}
		if max-min > 1 {
			t.Errorf("n=%d: usage spread %d exceeds 1 at a full queue: %v", n, max-min, usage)
		}
	}
}

func TestBuildNeverReusesAQueuedSubset(t *testing.T) {
	queue, err := Build(roster(6), nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for _, c := range queue {
		p := c.players()
		key := subsetKey(p[0], p[1], p[2], p[3])
		if seen[key] {
			t.Fatalf("queue reuses the 4-player set of %v", c)
		}
		seen[key] = true
	}
}

func TestBuildSkipsSubsetAlreadyQueuedInUniverse(t *testing.T) {
	// The only 4-subset already has a queued game, so nothing can be added.
	universe := []Match{
		{TeamA: [2]string{"p0", "p1"}, TeamB: [2]string{"p2", "p3"}, Status: StatusQueued},
	}
	queue, err := Build(roster(4), universe, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue) != 0 {
		t.Fatalf("expected empty queue when the subset is already queued, got %v", queue)
	}
}

func TestBuildPrefersPlayersWithFewerLifetimeGames(t *testing.T) {
	players := roster(5)
	players[2].GamesPlayed = 40 // p2 is the session veteran

	queue, err := Build(players, nil, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("expected 1 game, got %d", len(queue))
	}
	for _, id := range queue[0].players() {
		if id == "p2" {
			t.Errorf("expected the veteran p2 to sit out round 1, got %v", queue[0])
		}
	}
}

func TestBuildDuplicatePlayerIsRejected(t *testing.T) {
	players := roster(5)
	players[4].ID = "p0"

	if _, err := Build(players, nil, 3); !errors.Is(err, ErrDuplicatePlayer) {
		t.Fatalf("expected ErrDuplicatePlayer, got %v", err)
	}
}

func TestBuildDoesNotMutateInputs(t *testing.T) {
	players := []Player{{ID: "p3"}, {ID: "p1"}, {ID: "p0"}, {ID: "p2"}, {ID: "p4"}}
	universe := []Match{
		{TeamA: [2]string{"p0", "p1"}, TeamB: [2]string{"p2", "p3"}, Status: StatusCompleted},
	}
	playersCopy := make([]Player, len(players))
	copy(playersCopy, players)
	universeCopy := make([]Match, len(universe))
	copy(universeCopy, universe)

	if _, err := Build(players, universe, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(players, playersCopy) {
		t.Errorf("Build reordered the caller's player slice")
	}
	if !reflect.DeepEqual(universe, universeCopy) {
		t.Errorf("Build mutated the caller's match slice")
	}
}
