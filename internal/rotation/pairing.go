package rotation

// pairCounts scans the given match records and reports how many times p1 and
// p2 appeared together as teammates and how many times as opponents. A match
// missing either player contributes nothing. Callers must not pass p1 == p2;
// the result for a self-pair is always (0, 0).
func pairCounts(p1, p2 string, matches []Match) (teammates, opponents int) {
	if p1 == p2 {
		return 0, 0
	}
	for _, m := range matches {
		s1 := m.side(p1)
		if s1 < 0 {
			continue
		}
		s2 := m.side(p2)
		if s2 < 0 {
			continue
		}
		if s1 == s2 {
			teammates++
		} else {
			opponents++
		}
	}
	return teammates, opponents
}
