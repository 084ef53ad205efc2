// Package player provides PostgreSQL-backed storage for club players.
// The lifetime games_played counter is monotonic and only ever bumped by
// the game store when a game completes; this package exposes it read-only.
package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Player is one registered club member.
type Player struct {
	ID           string
	Name         string
	GamesPlayed  int
	BalanceCents int64
	CreatedAt    time.Time
}

// Store manages players in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a player store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new player with a fresh UUID and zero counters.
func (s *Store) Create(ctx context.Context, name string) (*Player, error) {
	if name == "" {
		return nil, fmt.Errorf("player: name must not be empty")
	}

	p := &Player{
		ID:   uuid.New().String(),
		Name: name,
	}

	const query = `
		INSERT INTO players (id, name)
		VALUES ($1, $2)
		RETURNING created_at`

	if err := s.db.QueryRowContext(ctx, query, p.ID, p.Name).Scan(&p.CreatedAt); err != nil {
		return nil, fmt.Errorf("player: insert: %w", err)
	}
	return p, nil
}

// Get retrieves a player by ID. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, id string) (*Player, error) {
	const query = `
		SELECT id, name, games_played, balance_cents, created_at
		FROM players
		WHERE id = $1`

	var p Player
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.GamesPlayed, &p.BalanceCents, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("player: get %s: %w", id, err)
	}
	return &p, nil
}

// ListByIDs returns the players for the given IDs, ordered by ID ascending.
// Unknown IDs are silently absent from the result.
func (s *Store) ListByIDs(ctx context.Context, ids []string) ([]Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, name, games_played, balance_cents, created_at
		FROM players
		WHERE id = ANY($1)
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("player: list by ids: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.Name, &p.GamesPlayed, &p.BalanceCents, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("player: scan: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
