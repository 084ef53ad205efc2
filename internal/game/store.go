// Package game provides PostgreSQL-backed storage for the 2v2 games of a
// session: the queued games emitted by the rotation builder, plus their
// playing/completed lifecycle. Completing a game also bumps the lifetime
// counters of its four players in the same transaction.
package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/courtside/club-app/internal/rotation"
)

// Winner values for a completed game.
const (
	WinnerTeamA = "A"
	WinnerTeamB = "B"
)

// Game is one persisted 2v2 game of a session.
type Game struct {
	ID        string
	SessionID string
	Number    int
	TeamA     [2]string
	TeamB     [2]string
	Status    rotation.Status
	Winner    string // "A" or "B" once completed, empty before
	CreatedAt time.Time
}

// Record converts the stored game into the read-only form the rotation
// builder consumes.
func (g Game) Record() rotation.Match {
	return rotation.Match{TeamA: g.TeamA, TeamB: g.TeamB, Status: g.Status}
}

// Store manages games in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a game store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InsertQueued persists the builder's output as new queued games, numbered
// sequentially after the session's current highest game number. All inserts
// happen in one transaction.
func (s *Store) InsertQueued(ctx context.Context, sessionID string, queue []rotation.Candidate) ([]Game, error) {
	if len(queue) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("game: begin: %w", err)
	}
	defer tx.Rollback()

	var next int
	const maxQuery = `SELECT COALESCE(MAX(game_no), 0) FROM games WHERE session_id = $1`
	if err := tx.QueryRowContext(ctx, maxQuery, sessionID).Scan(&next); err != nil {
		return nil, fmt.Errorf("game: next number: %w", err)
	}

	const insert = `
		INSERT INTO games (id, session_id, game_no, team_a1, team_a2, team_b1, team_b2, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	games := make([]Game, 0, len(queue))
	for _, c := range queue {
		next++
		g := Game{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Number:    next,
			TeamA:     c.TeamA,
			TeamB:     c.TeamB,
			Status:    rotation.StatusQueued,
		}
		err := tx.QueryRowContext(ctx, insert,
			g.ID, g.SessionID, g.Number,
			g.TeamA[0], g.TeamA[1], g.TeamB[0], g.TeamB[1],
			rotation.StatusQueued,
		).Scan(&g.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("game: insert queued #%d: %w", g.Number, err)
		}
		games = append(games, g)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("game: commit queued: %w", err)
	}
	return games, nil
}

// ListBySession returns all games of a session ordered by game number
// ascending (oldest first), which is the order the rotation builder expects.
func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]Game, error) {
	const query = `
		SELECT id, session_id, game_no, team_a1, team_a2, team_b1, team_b2,
		       status, COALESCE(winner, ''), created_at
		FROM games
		WHERE session_id = $1
		ORDER BY game_no`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("game: list session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		err := rows.Scan(&g.ID, &g.SessionID, &g.Number,
			&g.TeamA[0], &g.TeamA[1], &g.TeamB[0], &g.TeamB[1],
			&g.Status, &g.Winner, &g.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("game: scan: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// DeleteQueued removes the session's still-queued games, returning how many
// were dropped. The scheduler calls this before regenerating the queue.
func (s *Store) DeleteQueued(ctx context.Context, sessionID string) (int64, error) {
	const query = `DELETE FROM games WHERE session_id = $1 AND status = 'queued'`
	res, err := s.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return 0, fmt.Errorf("game: delete queued: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Start moves a queued game to playing.
func (s *Store) Start(ctx context.Context, gameID string) error {
	const query = `UPDATE games SET status = 'playing' WHERE id = $1 AND status = 'queued'`
	res, err := s.db.ExecContext(ctx, query, gameID)
	if err != nil {
		return fmt.Errorf("game: start %s: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("game: %s is not queued", gameID)
	}
	return nil
}

// Complete marks a game completed with the given winner ("A" or "B") and
// increments games_played for its four players, all in one transaction.
// Returns the completed game.
func (s *Store) Complete(ctx context.Context, gameID, winner string) (*Game, error) {
	if winner != WinnerTeamA && winner != WinnerTeamB {
		return nil, fmt.Errorf("game: invalid winner %q", winner)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("game: begin: %w", err)
	}
	defer tx.Rollback()

	const update = `
		UPDATE games SET status = 'completed', winner = $2
		WHERE id = $1 AND status <> 'completed'
		RETURNING session_id, game_no, team_a1, team_a2, team_b1, team_b2, created_at`

	g := Game{ID: gameID, Status: rotation.StatusCompleted, Winner: winner}
	err = tx.QueryRowContext(ctx, update, gameID, winner).Scan(
		&g.SessionID, &g.Number,
		&g.TeamA[0], &g.TeamA[1], &g.TeamB[0], &g.TeamB[1],
		&g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game: %s not found or already completed", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("game: complete %s: %w", gameID, err)
	}

	ids := []string{g.TeamA[0], g.TeamA[1], g.TeamB[0], g.TeamB[1]}
	const bump = `UPDATE players SET games_played = games_played + 1 WHERE id = ANY($1)`
	if _, err := tx.ExecContext(ctx, bump, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("game: bump counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("game: commit complete: %w", err)
	}
	return &g, nil
}

// CompletedCounts returns, per player, how many completed games of the
// session they appeared in. Used by the ledger to split the court cost.
func (s *Store) CompletedCounts(ctx context.Context, sessionID string) (map[string]int, error) {
	const query = `
		SELECT p, COUNT(*)
		FROM (
			SELECT unnest(ARRAY[team_a1, team_a2, team_b1, team_b2]) AS p
			FROM games
			WHERE session_id = $1 AND status = 'completed'
		) participants
		GROUP BY p`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("game: completed counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("game: scan counts: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
