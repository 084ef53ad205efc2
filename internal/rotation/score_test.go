package rotation

import "testing"

func TestScoreRanksRepeatTeammatesWorse(t *testing.T) {
	// Players a and b were teammates in five recent games. A candidate that
	// pairs them again must score strictly worse than one that separates
	// them, with every other weighted term held equal.
	var history []Match
	for i := 0; i < 5; i++ {
		history = append(history, Match{
			TeamA: [2]string{"a", "b"}, TeamB: [2]string{"c", "d"}, Status: StatusCompleted,
		})
	}

	usage := map[string]int{"a": 0, "b": 0, "e": 0, "f": 0}
	lifetime := map[string]int{}

	together := Candidate{TeamA: [2]string{"a", "b"}, TeamB: [2]string{"e", "f"}}
	separated := Candidate{TeamA: [2]string{"a", "e"}, TeamB: [2]string{"b", "f"}}

	st := scoreCandidate(together, usage, 0, lifetime, history)
	ss := scoreCandidate(separated, usage, 0, lifetime, history)

	if st <= ss {
		t.Errorf("pairing repeat teammates must score worse: together=%d separated=%d", st, ss)
	}
}

func TestScoreUnderusedBonusDominatesEverything(t *testing.T) {
	// A candidate carrying one more minimum-usage player must win even
	// against a candidate with zero repeat penalties.
	usage := map[string]int{"a": 0, "b": 0, "c": 0, "d": 0, "e": 1}
	lifetime := map[string]int{}

	// Heavy shared history among a, b, c, d.
	var history []Match
	for i := 0; i < 8; i++ {
		history = append(history, Match{
			TeamA: [2]string{"a", "b"}, TeamB: [2]string{"c", "d"}, Status: StatusCompleted,
		})
	}

	allFresh := Candidate{TeamA: [2]string{"a", "b"}, TeamB: [2]string{"c", "d"}}
	oneUsed := Candidate{TeamA: [2]string{"a", "e"}, TeamB: [2]string{"b", "c"}}

	sf := scoreCandidate(allFresh, usage, 0, lifetime, history)
	su := scoreCandidate(oneUsed, usage, 0, lifetime, history)

	if sf >= su {
		t.Errorf("four minimum-usage players must beat three regardless of penalties: four=%d three=%d", sf, su)
	}
}

func TestScorePrefersLowerLifetimeCounts(t *testing.T) {
	usage := map[string]int{"a": 0, "b": 0, "c": 0, "d": 0, "e": 0, "f": 0}
	lifetime := map[string]int{"a": 0, "b": 0, "c": 0, "d": 0, "e": 30, "f": 0}

	fresh := Candidate{TeamA: [2]string{"a", "b"}, TeamB: [2]string{"c", "d"}}
	veteran := Candidate{TeamA: [2]string{"a", "b"}, TeamB: [2]string{"c", "e"}}

	if sf, sv := scoreCandidate(fresh, usage, 0, lifetime, nil), scoreCandidate(veteran, usage, 0, lifetime, nil); sf >= sv {
		t.Errorf("candidate with fewer lifetime games must score better: fresh=%d veteran=%d", sf, sv)
	}
}

func TestScoreOpponentRepeatCheaperThanTeammateRepeat(t *testing.T) {
	// One prior game of a+b as teammates vs one prior game of a vs b.
	teammateHistory := []Match{
		{TeamA: [2]string{"a", "b"}, TeamB: [2]string{"x", "y"}, Status: StatusCompleted},
	}
	opponentHistory := []Match{
		{TeamA: [2]string{"a", "x"}, TeamB: [2]string{"b", "y"}, Status: StatusCompleted},
	}

	usage := map[string]int{"a": 0, "b": 0, "e": 0, "f": 0}
	lifetime := map[string]int{}
	again := Candidate{TeamA: [2]string{"a", "b"}, TeamB: [2]string{"e", "f"}}
	versus := Candidate{TeamA: [2]string{"a", "e"}, TeamB: [2]string{"b", "f"}}

	// Re-pairing after one teammate game costs weightTeammateRepeat; meeting
	// again after one opposing game costs weightOpponentRepeat.
	costTeammate := scoreCandidate(again, usage, 0, lifetime, teammateHistory) -
		scoreCandidate(versus, usage, 0, lifetime, teammateHistory)
	costOpponent := scoreCandidate(versus, usage, 0, lifetime, opponentHistory) -
		scoreCandidate(again, usage, 0, lifetime, opponentHistory)

	if costTeammate <= costOpponent {
		t.Errorf("teammate repeats must be penalized harder than opponent repeats: %d vs %d",
			costTeammate, costOpponent)
	}
}
