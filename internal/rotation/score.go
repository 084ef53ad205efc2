package rotation

// Score weights. The order-of-magnitude gaps enforce a strict priority
// ladder: fairness to under-served players dominates usage spread, spread
// dominates total usage, and so on down to the recency signal. The values
// are tunable but their relative ordering must be preserved.
const (
	weightUnderused      = 1_000_000 // per candidate player at the minimum usage count (subtracted)
	weightSpread         = 100_000   // per unit of max-min usage gap inside the candidate
	weightTotalUsage     = 10_000    // per unit of summed usage inside the candidate
	weightTeammateRepeat = 5_000     // per prior teammate pairing of either team pair
	weightOpponentRepeat = 3_000     // per prior opposing pairing of the four cross pairs
	weightLifetime       = 100       // per lifetime completed game of the four players
	weightRecency        = 10        // per unit of recent co-occurrence over all six pairs
)

// scoreCandidate computes the composite desirability score for a candidate;
// lower is better. usage holds per-player queue-usage counters for the
// current invocation, minUsage is the minimum counter value across all
// active players, lifetime maps player IDs to their lifetime completed-game
// counts, and matches is the full match universe including games committed
// earlier in this invocation (ordered oldest to newest).
func scoreCandidate(c Candidate, usage map[string]int, minUsage int, lifetime map[string]int, matches []Match) int64 {
	four := c.players()

	var score int64

	// Underused-participant bonus: fairness trumps everything else.
	underused := 0
	for _, id := range four {
		if usage[id] == minUsage {
			underused++
		}
	}
	score -= int64(underused) * weightUnderused

	// Usage spread and total usage inside the candidate.
	lo, hi := usage[four[0]], usage[four[0]]
	total := 0
	for _, id := range four {
		u := usage[id]
		total += u
		if u < lo {
			lo = u
		}
		if u > hi {
			hi = u
		}
	}
	score += int64(hi-lo) * weightSpread
	score += int64(total) * weightTotalUsage

	// Repeat pairings: the two team pairs as teammates, the four cross
	// pairs as opponents.
	ta, _ := pairCounts(c.TeamA[0], c.TeamA[1], matches)
	tb, _ := pairCounts(c.TeamB[0], c.TeamB[1], matches)
	score += int64(ta+tb) * weightTeammateRepeat

	opponents := 0
	for _, a := range c.TeamA {
		for _, b := range c.TeamB {
			_, o := pairCounts(a, b, matches)
			opponents += o
		}
	}
	score += int64(opponents) * weightOpponentRepeat

	// Mild preference for players with fewer lifetime games.
	for _, id := range four {
		score += int64(lifetime[id]) * weightLifetime
	}

	// Recent co-occurrence over all six pairs among the four players.
	recency := 0
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			recency += interactionScore(four[i], four[j], matches)
		}
	}
	score += int64(recency) * weightRecency

	return score
}
