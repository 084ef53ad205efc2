package rotation

import (
	"errors"
	"sort"
	"strings"
)

// DefaultMaxRounds is the reference queue depth.
const DefaultMaxRounds = 3

// ErrDuplicatePlayer is returned when the active-player list violates the
// caller contract by containing the same ID twice.
var ErrDuplicatePlayer = errors.New("rotation: duplicate player id in active list")

// Build generates an ordered queue of at most maxRounds candidate games from
// the active players and the session's match universe (completed, playing,
// and still-queued games, ordered oldest to newest).
//
// Fewer than four active players yields an empty queue; running out of valid
// candidates mid-way yields a partial queue. Neither is an error. The only
// error condition is a duplicate ID in the active list.
//
// Players are canonicalized by ascending ID before enumeration, so the
// output is independent of the incoming list order; score ties resolve to
// the first candidate in canonical enumeration order.
func Build(active []Player, universe []Match, maxRounds int) ([]Candidate, error) {
	players := make([]Player, len(active))
	copy(players, active)
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	usage := make(map[string]int, len(players))
	lifetime := make(map[string]int, len(players))
	for _, p := range players {
		if _, ok := usage[p.ID]; ok {
			return nil, ErrDuplicatePlayer
		}
		usage[p.ID] = 0
		lifetime[p.ID] = p.GamesPlayed
	}

	if len(players) < 4 || maxRounds <= 0 {
		return nil, nil
	}

	// Matches grows as rounds commit; copy so the caller's slice stays
	// untouched. queuedSets tracks 4-player subsets that already have a
	// queued game — re-queueing the same four players is never useful.
	matches := make([]Match, len(universe), len(universe)+maxRounds)
	copy(matches, universe)

	queuedSets := make(map[string]struct{})
	for _, m := range universe {
		if m.Status == StatusQueued {
			queuedSets[subsetKey(m.TeamA[0], m.TeamA[1], m.TeamB[0], m.TeamB[1])] = struct{}{}
		}
	}

	var queue []Candidate
	for round := 0; round < maxRounds; round++ {
		// The hard fairness pre-filter: when four or more players sit at
		// the minimum usage count, a candidate must carry at least three
		// of them. This is a hard constraint, not a weight — starvation
		// cannot occur no matter what the soft terms prefer.
		minUsage, atMin := usageMinimum(players, usage)
		enforceMinimum := atMin >= 4

		var (
			best      Candidate
			bestScore int64
			found     bool
		)

		iter := newCombinations(len(players), 4)
		for idx, ok := iter.next(); ok; idx, ok = iter.next() {
			four := [4]string{
				players[idx[0]].ID,
				players[idx[1]].ID,
				players[idx[2]].ID,
				players[idx[3]].ID,
			}

			if _, dup := queuedSets[subsetKey(four[0], four[1], four[2], four[3])]; dup {
				continue
			}

			if enforceMinimum {
				n := 0
				for _, id := range four {
					if usage[id] == minUsage {
						n++
					}
				}
				if n < 3 {
					continue
				}
			}

			for _, cand := range splits(four) {
				s := scoreCandidate(cand, usage, minUsage, lifetime, matches)
				if !found || s < bestScore {
					best, bestScore, found = cand, s, true
				}
			}
		}

		if !found {
			// Exhausted: no candidate survived the pre-filter. Return the
			// partial queue — this is a normal termination path.
			break
		}

		queue = append(queue, best)
		for _, id := range best.players() {
			usage[id]++
		}
		matches = append(matches, best.match())
		queuedSets[subsetKey(best.TeamA[0], best.TeamA[1], best.TeamB[0], best.TeamB[1])] = struct{}{}
	}

	return queue, nil
}

// usageMinimum returns the minimum usage counter across all active players
// and how many players currently sit at it.
func usageMinimum(players []Player, usage map[string]int) (min, count int) {
	min = usage[players[0].ID]
	for _, p := range players[1:] {
		if u := usage[p.ID]; u < min {
			min = u
		}
	}
	for _, p := range players {
		if usage[p.ID] == min {
			count++
		}
	}
	return min, count
}

// subsetKey builds an order-independent key for a 4-player set.
func subsetKey(a, b, c, d string) string {
	ids := []string{a, b, c, d}
	sort.Strings(ids)
	return strings.Join(ids, "\x00")
}
