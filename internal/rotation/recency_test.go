package rotation

import "testing"

// co builds a match containing both given players.
func co(p1, p2 string) Match {
	return Match{TeamA: [2]string{p1, p2}, TeamB: [2]string{"x", "y"}, Status: StatusCompleted}
}

// apart builds a match containing neither given player.
func apart() Match {
	return Match{TeamA: [2]string{"w", "x"}, TeamB: [2]string{"y", "z"}, Status: StatusCompleted}
}

func TestInteractionScoreMostRecentMatchWeighsHighest(t *testing.T) {
	// Single co-occurrence as the newest match: d=1, so (10-1+1)*2 = 20.
	matches := []Match{apart(), co("a", "b")}
	if got := interactionScore("a", "b", matches); got != 20 {
		t.Errorf("expected 20 for a co-occurrence in the newest match, got %d", got)
	}

	// Same co-occurrence one slot earlier: d=2, so (10-2+1)*2 = 18.
	matches = []Match{co("a", "b"), apart()}
	if got := interactionScore("a", "b", matches); got != 18 {
		t.Errorf("expected 18 for a co-occurrence one match back, got %d", got)
	}
}

func TestInteractionScoreIgnoresMatchesOutsideWindow(t *testing.T) {
	// One co-occurrence followed by recencyWindow unrelated matches pushes
	// it out of the window entirely.
	matches := []Match{co("a", "b")}
	for i := 0; i < recencyWindow; i++ {
		matches = append(matches, apart())
	}

	if got := interactionScore("a", "b", matches); got != 0 {
		t.Errorf("expected 0 for a co-occurrence outside the window, got %d", got)
	}
}

func TestInteractionScoreAccumulates(t *testing.T) {
	// Two co-occurrences in the two newest slots: 20 + 18.
	matches := []Match{co("a", "b"), co("a", "b")}
	if got := interactionScore("a", "b", matches); got != 38 {
		t.Errorf("expected 38 for back-to-back co-occurrences, got %d", got)
	}
}

func TestInteractionScoreCountsOpponentsToo(t *testing.T) {
	// The scorer intentionally conflates teammates and opponents here.
	matches := []Match{
		{TeamA: [2]string{"a", "x"}, TeamB: [2]string{"b", "y"}, Status: StatusCompleted},
	}
	if got := interactionScore("a", "b", matches); got != 20 {
		t.Errorf("expected cross-team co-occurrence to score 20, got %d", got)
	}
}
