// Package rotation generates short queues of fair 2v2 games for a club-night
// session. Given the checked-in players and the session's game history, it
// greedily picks the lowest-scoring candidate game per round, preferring
// under-served players, balanced exposure, and fresh pairings.
//
// The whole computation is a pure function of its inputs: no I/O, no state
// shared between invocations. Multiple calls may run concurrently on
// independent inputs.
package rotation

// Status is the lifecycle state of a game record.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusPlaying   Status = "playing"
	StatusCompleted Status = "completed"
)

// Player is the read-only view of an active participant. GamesPlayed is the
// lifetime completed-game counter owned by the persistence layer.
type Player struct {
	ID          string
	GamesPlayed int
}

// Match is one 2v2 game record: four distinct players partitioned into two
// teams, plus a lifecycle status. The builder only reads matches, never
// mutates them.
type Match struct {
	TeamA  [2]string
	TeamB  [2]string
	Status Status
}

// side reports which team id plays on: 0 for team A, 1 for team B, -1 if id
// is not in the match.
func (m Match) side(id string) int {
	if m.TeamA[0] == id || m.TeamA[1] == id {
		return 0
	}
	if m.TeamB[0] == id || m.TeamB[1] == id {
		return 1
	}
	return -1
}

// contains reports whether id plays in the match on either team.
func (m Match) contains(id string) bool {
	return m.side(id) >= 0
}

// Candidate is a proposed game: one 4-player subset with a specific 2/2
// split. Candidates exist only during scoring and in the returned queue;
// they carry no identity or persistence.
type Candidate struct {
	TeamA [2]string
	TeamB [2]string
}

// players returns the four participants of the candidate.
func (c Candidate) players() [4]string {
	return [4]string{c.TeamA[0], c.TeamA[1], c.TeamB[0], c.TeamB[1]}
}

// match converts the candidate into a queued match record.
func (c Candidate) match() Match {
	return Match{TeamA: c.TeamA, TeamB: c.TeamB, Status: StatusQueued}
}
