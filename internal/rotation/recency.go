package rotation

// recencyWindow is the number of most recent matches considered by
// interactionScore.
const recencyWindow = 10

// interactionScore weights how recently p1 and p2 shared a court. Only the
// last recencyWindow entries of matches (ordered oldest to newest) are
// considered; each match containing both players adds (W - d + 1) * 2 where
// d is 1 for the most recent match. Teammate and opponent appearances count
// the same here — the score penalizes any frequent recent co-occurrence,
// on top of the explicit teammate/opponent penalties in the scorer.
func interactionScore(p1, p2 string, matches []Match) int {
	start := len(matches) - recencyWindow
	if start < 0 {
		start = 0
	}

	score := 0
	for i := start; i < len(matches); i++ {
		m := matches[i]
		if !m.contains(p1) || !m.contains(p2) {
			continue
		}
		d := len(matches) - i // 1 for the most recent match
		score += (recencyWindow - d + 1) * 2
	}
	return score
}
