// Package scheduling runs the background rotation scheduler. It listens on
// NATS for queue rebuild requests and recorded results, rebuilds the affected
// session's game queue with the rotation builder, persists it, and publishes
// the new queue for the gateways to fan out.
package scheduling

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/courtside/club-app/internal/game"
	"github.com/courtside/club-app/internal/messaging"
	"github.com/courtside/club-app/internal/metrics"
	"github.com/courtside/club-app/internal/player"
	"github.com/courtside/club-app/internal/protocol"
	"github.com/courtside/club-app/internal/rotation"
)

const sweepInterval = 30 * time.Second

// GenerateRequest is the NATS payload asking for a session's queue rebuild.
type GenerateRequest struct {
	SessionID string `json:"session_id"`
}

// CompletedEvent is the NATS payload published when a game result is recorded.
type CompletedEvent struct {
	SessionID string `json:"session_id"`
	GameID    string `json:"game_id"`
	Winner    string `json:"winner"`
}

// GameStore is the slice of the game store the scheduler needs.
type GameStore interface {
	ListBySession(ctx context.Context, sessionID string) ([]game.Game, error)
	DeleteQueued(ctx context.Context, sessionID string) (int64, error)
	InsertQueued(ctx context.Context, sessionID string, queue []rotation.Candidate) ([]game.Game, error)
}

// PlayerSource resolves player IDs to player records.
type PlayerSource interface {
	ListByIDs(ctx context.Context, ids []string) ([]player.Player, error)
}

// Presence is the slice of the presence tracker the scheduler needs.
type Presence interface {
	ActivePlayers(ctx context.Context, sessionID string) ([]string, error)
	Sweep(ctx context.Context, sessionID string) ([]string, error)
}

// Publisher publishes queue updates.
type Publisher interface {
	PublishRotationUpdated(sessionID string, data []byte) error
}

// Service is the background scheduler.
type Service struct {
	games     GameStore
	players   PlayerSource
	presence  Presence
	publisher Publisher
	nats      *messaging.NATSClient
	maxRounds int

	mu      sync.Mutex
	tracked map[string]struct{} // sessions seen since startup, swept periodically

	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a scheduler. The nats client may be nil in tests; the
// publisher is what Regenerate publishes through.
func NewService(games GameStore, players PlayerSource, presence Presence, publisher Publisher, nats *messaging.NATSClient, maxRounds int) *Service {
	if maxRounds <= 0 {
		maxRounds = rotation.DefaultMaxRounds
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		games:     games,
		players:   players,
		presence:  presence,
		publisher: publisher,
		nats:      nats,
		maxRounds: maxRounds,
		tracked:   make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start subscribes to NATS subjects and starts the periodic presence sweep.
func (s *Service) Start() error {
	if err := s.nats.SubscribeRotationGenerate(s.handleGenerate); err != nil {
		return err
	}
	if err := s.nats.SubscribeGameCompleted(s.handleCompleted); err != nil {
		return err
	}

	go s.sweepLoop()

	log.Println("[scheduler] service started")
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	s.cancel()
	log.Println("[scheduler] service stopped")
}

func (s *Service) handleGenerate(data []byte) {
	var req GenerateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Printf("[scheduler] invalid generate request: %v", err)
		return
	}
	if req.SessionID == "" {
		log.Printf("[scheduler] generate request without session_id")
		return
	}

	s.track(req.SessionID)
	if _, err := s.Regenerate(s.ctx, req.SessionID); err != nil {
		log.Printf("[scheduler] regenerate %s: %v", req.SessionID, err)
	}
}

func (s *Service) handleCompleted(data []byte) {
	var ev CompletedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("[scheduler] invalid completed event: %v", err)
		return
	}
	if ev.SessionID == "" {
		return
	}

	// Every recorded result frees a court slot and shifts the usage counts,
	// so the remaining queue is rebuilt from scratch.
	s.track(ev.SessionID)
	if _, err := s.Regenerate(s.ctx, ev.SessionID); err != nil {
		log.Printf("[scheduler] regenerate after result %s: %v", ev.SessionID, err)
	}
}

func (s *Service) track(sessionID string) {
	s.mu.Lock()
	s.tracked[sessionID] = struct{}{}
	s.mu.Unlock()
}

// Regenerate rebuilds the queued games of a session. It sweeps stale
// check-ins, loads the active roster and the session's game history, drops
// the still-queued games, runs the rotation builder over playing+completed
// history, persists the new queue, and publishes it.
func (s *Service) Regenerate(ctx context.Context, sessionID string) ([]game.Game, error) {
	started := time.Now()

	if stale, err := s.presence.Sweep(ctx, sessionID); err != nil {
		log.Printf("[scheduler] sweep %s: %v", sessionID, err)
	} else if len(stale) > 0 {
		log.Printf("[scheduler] swept %d stale check-ins from %s", len(stale), sessionID)
	}

	ids, err := s.presence.ActivePlayers(ctx, sessionID)
	if err != nil {
		metrics.QueuesGenerated.WithLabelValues("error").Inc()
		return nil, err
	}

	roster, err := s.players.ListByIDs(ctx, ids)
	if err != nil {
		metrics.QueuesGenerated.WithLabelValues("error").Inc()
		return nil, err
	}
	active := make([]rotation.Player, len(roster))
	for i, p := range roster {
		active[i] = rotation.Player{ID: p.ID, GamesPlayed: p.GamesPlayed}
	}

	all, err := s.games.ListBySession(ctx, sessionID)
	if err != nil {
		metrics.QueuesGenerated.WithLabelValues("error").Inc()
		return nil, err
	}
	// The builder sees only games that still count: queued rows are about to
	// be replaced.
	universe := make([]rotation.Match, 0, len(all))
	for _, g := range all {
		if g.Status == rotation.StatusQueued {
			continue
		}
		universe = append(universe, g.Record())
	}

	if _, err := s.games.DeleteQueued(ctx, sessionID); err != nil {
		metrics.QueuesGenerated.WithLabelValues("error").Inc()
		return nil, err
	}

	queue, err := rotation.Build(active, universe, s.maxRounds)
	if err != nil {
		metrics.QueuesGenerated.WithLabelValues("error").Inc()
		return nil, err
	}

	inserted, err := s.games.InsertQueued(ctx, sessionID, queue)
	if err != nil {
		metrics.QueuesGenerated.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.QueueBuildDuration.Observe(time.Since(started).Seconds())
	if len(inserted) == 0 {
		metrics.QueuesGenerated.WithLabelValues("empty").Inc()
	} else {
		metrics.QueuesGenerated.WithLabelValues("ok").Inc()
	}

	s.publish(sessionID, inserted)

	log.Printf("[scheduler] rebuilt queue for %s: %d games from %d active players",
		sessionID, len(inserted), len(active))
	return inserted, nil
}

// publish sends the queue_updated payload for the session's new queue.
func (s *Service) publish(sessionID string, queue []game.Game) {
	if s.publisher == nil {
		return
	}

	msg := protocol.QueueUpdatedMsg{
		Type:      protocol.TypeQueueUpdated,
		SessionID: sessionID,
		Games:     make([]protocol.QueuedGame, len(queue)),
	}
	for i, g := range queue {
		msg.Games[i] = protocol.QueuedGame{
			GameID: g.ID,
			Number: g.Number,
			TeamA:  g.TeamA,
			TeamB:  g.TeamB,
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[scheduler] marshal queue update %s: %v", sessionID, err)
		return
	}
	if err := s.publisher.PublishRotationUpdated(sessionID, data); err != nil {
		log.Printf("[scheduler] publish queue update %s: %v", sessionID, err)
	}
}

// sweepLoop periodically sweeps stale check-ins from every tracked session so
// that no-shows drop out even when nothing else triggers a rebuild.
func (s *Service) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			log.Println("[scheduler] sweep loop stopped")
			return
		case <-ticker.C:
			s.mu.Lock()
			ids := make([]string, 0, len(s.tracked))
			for id := range s.tracked {
				ids = append(ids, id)
			}
			s.mu.Unlock()

			for _, id := range ids {
				if stale, err := s.presence.Sweep(s.ctx, id); err != nil {
					log.Printf("[scheduler] sweep %s: %v", id, err)
				} else if len(stale) > 0 {
					log.Printf("[scheduler] swept %d stale check-ins from %s, rebuilding", len(stale), id)
					if _, err := s.Regenerate(s.ctx, id); err != nil {
						log.Printf("[scheduler] regenerate after sweep %s: %v", id, err)
					}
				}
			}
		}
	}
}
