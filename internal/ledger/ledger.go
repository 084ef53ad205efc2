// Package ledger charges a closed session's court cost to its players in
// proportion to the games they played, and records every charge as an
// immutable ledger entry.
package ledger

import "sort"

// SplitCost divides totalCents across the players in gamesPlayed, weighted
// by their game counts. Remainder cents left by integer division go to the
// players with the largest fractional share, ties broken by ascending
// player ID, so the shares always sum to totalCents exactly.
//
// When nobody played a game the cost splits evenly instead. An empty player
// map yields an empty result.
func SplitCost(totalCents int64, gamesPlayed map[string]int) map[string]int64 {
	if len(gamesPlayed) == 0 {
		return map[string]int64{}
	}

	ids := make([]string, 0, len(gamesPlayed))
	total := 0
	for id, n := range gamesPlayed {
		ids = append(ids, id)
		total += n
	}
	sort.Strings(ids)

	// No games at all: even split.
	weights := make(map[string]int, len(gamesPlayed))
	if total == 0 {
		for _, id := range ids {
			weights[id] = 1
		}
		total = len(ids)
	} else {
		for id, n := range gamesPlayed {
			weights[id] = n
		}
	}

	shares := make(map[string]int64, len(ids))
	type rem struct {
		id   string
		frac int64
	}
	rems := make([]rem, 0, len(ids))
	var assigned int64
	for _, id := range ids {
		exact := totalCents * int64(weights[id])
		share := exact / int64(total)
		shares[id] = share
		assigned += share
		rems = append(rems, rem{id: id, frac: exact % int64(total)})
	}

	// Largest remainder first; the ID sort above makes ties deterministic.
	sort.SliceStable(rems, func(i, j int) bool {
		return rems[i].frac > rems[j].frac
	})
	for i := int64(0); i < totalCents-assigned; i++ {
		shares[rems[i%int64(len(rems))].id]++
	}

	return shares
}
