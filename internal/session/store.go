// Package session manages club-night sessions: the PostgreSQL record of a
// night (title, court cost, open/closed) and the Redis-backed presence set
// of players currently checked in.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status constants for the session lifecycle.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// ErrAlreadyClosed is returned when closing a session twice.
var ErrAlreadyClosed = errors.New("session: already closed")

// Session is one club night.
type Session struct {
	ID             string
	Title          string
	CourtCostCents int64
	Status         string // open | closed
	OpenedAt       time.Time
	ClosedAt       sql.NullTime
}

// Store manages session records in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a session store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open creates a new open session with a fresh UUID.
func (s *Store) Open(ctx context.Context, title string, courtCostCents int64) (*Session, error) {
	if courtCostCents < 0 {
		return nil, fmt.Errorf("session: court cost must not be negative")
	}

	sess := &Session{
		ID:             uuid.New().String(),
		Title:          title,
		CourtCostCents: courtCostCents,
		Status:         StatusOpen,
	}

	const query = `
		INSERT INTO sessions (id, title, court_cost_cents, status)
		VALUES ($1, $2, $3, $4)
		RETURNING opened_at`

	if err := s.db.QueryRowContext(ctx, query, sess.ID, sess.Title, sess.CourtCostCents, sess.Status).
		Scan(&sess.OpenedAt); err != nil {
		return nil, fmt.Errorf("session: insert: %w", err)
	}
	return sess, nil
}

// Get retrieves a session by ID. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	const query = `
		SELECT id, title, court_cost_cents, status, opened_at, closed_at
		FROM sessions
		WHERE id = $1`

	var sess Session
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&sess.ID, &sess.Title, &sess.CourtCostCents, &sess.Status, &sess.OpenedAt, &sess.ClosedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: get %s: %w", id, err)
	}
	return &sess, nil
}

// Close marks an open session closed and stamps closed_at. Closing a session
// that is already closed returns ErrAlreadyClosed.
func (s *Store) Close(ctx context.Context, id string) (*Session, error) {
	const query = `
		UPDATE sessions SET status = 'closed', closed_at = NOW()
		WHERE id = $1 AND status = 'open'
		RETURNING title, court_cost_cents, opened_at, closed_at`

	sess := Session{ID: id, Status: StatusClosed}
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&sess.Title, &sess.CourtCostCents, &sess.OpenedAt, &sess.ClosedAt)
	if errors.Is(err, sql.ErrNoRows) {
		existing, gerr := s.Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if existing == nil {
			return nil, fmt.Errorf("session: %s not found", id)
		}
		return nil, ErrAlreadyClosed
	}
	if err != nil {
		return nil, fmt.Errorf("session: close %s: %w", id, err)
	}
	return &sess, nil
}
