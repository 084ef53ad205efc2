package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/courtside/club-app/internal/messaging"
	"github.com/courtside/club-app/internal/metrics"
)

// SessionClosedEvent is the NATS payload published when a session closes.
type SessionClosedEvent struct {
	SessionID      string `json:"session_id"`
	CourtCostCents int64  `json:"court_cost_cents"`
}

// ChargedEvent is the NATS payload published after a session is billed.
type ChargedEvent struct {
	SessionID string           `json:"session_id"`
	Shares    map[string]int64 `json:"shares"`
}

// CountSource resolves how many completed games each player of a session
// appeared in.
type CountSource interface {
	CompletedCounts(ctx context.Context, sessionID string) (map[string]int, error)
}

// Worker listens for closed sessions and bills the court cost to their
// players.
type Worker struct {
	counts CountSource
	store  *Store
	nats   *messaging.NATSClient
}

// NewWorker creates a billing worker.
func NewWorker(counts CountSource, store *Store, nats *messaging.NATSClient) *Worker {
	return &Worker{counts: counts, store: store, nats: nats}
}

// Start subscribes to session close events.
func (w *Worker) Start() error {
	if err := w.nats.SubscribeSessionClosed(w.handleClosed); err != nil {
		return err
	}
	log.Println("[ledger] worker started")
	return nil
}

func (w *Worker) handleClosed(data []byte) {
	var ev SessionClosedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("[ledger] invalid session closed event: %v", err)
		return
	}
	if ev.SessionID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := w.Charge(ctx, ev.SessionID, ev.CourtCostCents); err != nil {
		log.Printf("[ledger] charge %s: %v", ev.SessionID, err)
	}
}

// Charge splits the session's cost by completed game counts, writes the
// ledger entries, and publishes the billing result. Charging an
// already-billed session is a no-op.
func (w *Worker) Charge(ctx context.Context, sessionID string, courtCostCents int64) error {
	counts, err := w.counts.CompletedCounts(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		log.Printf("[ledger] session %s had no completed games, nothing to bill", sessionID)
		return nil
	}

	shares := SplitCost(courtCostCents, counts)
	entries, err := w.store.ChargeSession(ctx, sessionID, shares)
	if errors.Is(err, ErrAlreadyCharged) {
		log.Printf("[ledger] session %s already billed", sessionID)
		return nil
	}
	if err != nil {
		return err
	}
	metrics.SessionsCharged.Inc()
	log.Printf("[ledger] billed session %s: %d entries over %d cents", sessionID, len(entries), courtCostCents)

	ev := ChargedEvent{SessionID: sessionID, Shares: shares}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return w.nats.PublishBillingCharged(sessionID, data)
}
