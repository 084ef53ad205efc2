package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry kinds.
const (
	KindCharge   = "charge"
	KindReversal = "reversal"
)

// ErrAlreadyCharged is returned when charging a session that already has
// ledger entries.
var ErrAlreadyCharged = errors.New("ledger: session already charged")

// Entry is one immutable ledger row.
type Entry struct {
	ID          string
	SessionID   string
	PlayerID    string
	AmountCents int64
	Kind        string // charge | reversal
	CreatedAt   time.Time
}

// Store manages ledger entries in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a ledger store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ChargeSession writes one charge entry per player and debits their balance,
// all in a single transaction. A session that already has entries is not
// charged again.
func (s *Store) ChargeSession(ctx context.Context, sessionID string, shares map[string]int64) ([]Entry, error) {
	if len(shares) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback()

	var existing int
	const guard = `SELECT COUNT(*) FROM ledger_entries WHERE session_id = $1`
	if err := tx.QueryRowContext(ctx, guard, sessionID).Scan(&existing); err != nil {
		return nil, fmt.Errorf("ledger: charge guard: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyCharged
	}

	const insert = `
		INSERT INTO ledger_entries (id, session_id, player_id, amount_cents, kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	const debit = `UPDATE players SET balance_cents = balance_cents - $2 WHERE id = $1`

	entries := make([]Entry, 0, len(shares))
	for playerID, amount := range shares {
		e := Entry{
			ID:          uuid.New().String(),
			SessionID:   sessionID,
			PlayerID:    playerID,
			AmountCents: amount,
			Kind:        KindCharge,
		}
		if err := tx.QueryRowContext(ctx, insert, e.ID, e.SessionID, e.PlayerID, e.AmountCents, e.Kind).
			Scan(&e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger: insert charge for %s: %w", playerID, err)
		}
		if _, err := tx.ExecContext(ctx, debit, playerID, amount); err != nil {
			return nil, fmt.Errorf("ledger: debit %s: %w", playerID, err)
		}
		entries = append(entries, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ledger: commit charges: %w", err)
	}
	return entries, nil
}

// ReverseSession writes a compensating reversal entry for every charge of
// the session and restores the players' balances. Entries are never deleted.
func (s *Store) ReverseSession(ctx context.Context, sessionID string) ([]Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback()

	const charges = `
		SELECT player_id, amount_cents
		FROM ledger_entries
		WHERE session_id = $1 AND kind = 'charge'
		ORDER BY player_id`
	rows, err := tx.QueryContext(ctx, charges, sessionID)
	if err != nil {
		return nil, fmt.Errorf("ledger: list charges: %w", err)
	}

	type charge struct {
		playerID string
		amount   int64
	}
	var toReverse []charge
	for rows.Next() {
		var c charge
		if err := rows.Scan(&c.playerID, &c.amount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ledger: scan charge: %w", err)
		}
		toReverse = append(toReverse, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: list charges: %w", err)
	}

	const insert = `
		INSERT INTO ledger_entries (id, session_id, player_id, amount_cents, kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	const credit = `UPDATE players SET balance_cents = balance_cents + $2 WHERE id = $1`

	entries := make([]Entry, 0, len(toReverse))
	for _, c := range toReverse {
		e := Entry{
			ID:          uuid.New().String(),
			SessionID:   sessionID,
			PlayerID:    c.playerID,
			AmountCents: c.amount,
			Kind:        KindReversal,
		}
		if err := tx.QueryRowContext(ctx, insert, e.ID, e.SessionID, e.PlayerID, e.AmountCents, e.Kind).
			Scan(&e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger: insert reversal for %s: %w", c.playerID, err)
		}
		if _, err := tx.ExecContext(ctx, credit, c.playerID, c.amount); err != nil {
			return nil, fmt.Errorf("ledger: credit %s: %w", c.playerID, err)
		}
		entries = append(entries, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ledger: commit reversals: %w", err)
	}
	return entries, nil
}

// Entries returns all ledger entries of a session, oldest first.
func (s *Store) Entries(ctx context.Context, sessionID string) ([]Entry, error) {
	const query = `
		SELECT id, session_id, player_id, amount_cents, kind, created_at
		FROM ledger_entries
		WHERE session_id = $1
		ORDER BY created_at, player_id`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("ledger: entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.PlayerID, &e.AmountCents, &e.Kind, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
