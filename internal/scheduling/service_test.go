package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/courtside/club-app/internal/game"
	"github.com/courtside/club-app/internal/player"
	"github.com/courtside/club-app/internal/protocol"
	"github.com/courtside/club-app/internal/rotation"
)

// memGames is an in-memory GameStore for tests.
type memGames struct {
	games  []game.Game
	nextID int
}

func (m *memGames) ListBySession(_ context.Context, sessionID string) ([]game.Game, error) {
	var out []game.Game
	for _, g := range m.games {
		if g.SessionID == sessionID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memGames) DeleteQueued(_ context.Context, sessionID string) (int64, error) {
	kept := m.games[:0]
	var dropped int64
	for _, g := range m.games {
		if g.SessionID == sessionID && g.Status == rotation.StatusQueued {
			dropped++
			continue
		}
		kept = append(kept, g)
	}
	m.games = kept
	return dropped, nil
}

func (m *memGames) InsertQueued(_ context.Context, sessionID string, queue []rotation.Candidate) ([]game.Game, error) {
	number := 0
	for _, g := range m.games {
		if g.SessionID == sessionID && g.Number > number {
			number = g.Number
		}
	}
	var out []game.Game
	for _, c := range queue {
		m.nextID++
		number++
		g := game.Game{
			ID:        fmt.Sprintf("g%d", m.nextID),
			SessionID: sessionID,
			Number:    number,
			TeamA:     c.TeamA,
			TeamB:     c.TeamB,
			Status:    rotation.StatusQueued,
		}
		m.games = append(m.games, g)
		out = append(out, g)
	}
	return out, nil
}

// memPlayers is an in-memory PlayerSource.
type memPlayers struct {
	byID map[string]player.Player
}

func (m *memPlayers) ListByIDs(_ context.Context, ids []string) ([]player.Player, error) {
	var out []player.Player
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// memPresence is an in-memory Presence with a configurable stale set.
type memPresence struct {
	active map[string][]string
	stale  map[string][]string
}

func (m *memPresence) ActivePlayers(_ context.Context, sessionID string) ([]string, error) {
	return m.active[sessionID], nil
}

func (m *memPresence) Sweep(_ context.Context, sessionID string) ([]string, error) {
	stale := m.stale[sessionID]
	if len(stale) == 0 {
		return nil, nil
	}
	drop := make(map[string]bool, len(stale))
	for _, id := range stale {
		drop[id] = true
	}
	kept := m.active[sessionID][:0]
	for _, id := range m.active[sessionID] {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	m.active[sessionID] = kept
	m.stale[sessionID] = nil
	return stale, nil
}

// memPublisher records published queue updates.
type memPublisher struct {
	published [][]byte
}

func (m *memPublisher) PublishRotationUpdated(_ string, data []byte) error {
	m.published = append(m.published, data)
	return nil
}

func newTestService(games *memGames, presence *memPresence, pub *memPublisher, names ...string) *Service {
	byID := make(map[string]player.Player, len(names))
	for _, n := range names {
		byID[n] = player.Player{ID: n}
	}
	return NewService(games, &memPlayers{byID: byID}, presence, pub, nil, rotation.DefaultMaxRounds)
}

func TestRegenerateBuildsAndPublishesQueue(t *testing.T) {
	games := &memGames{}
	presence := &memPresence{
		active: map[string][]string{"night": {"p0", "p1", "p2", "p3", "p4"}},
		stale:  map[string][]string{},
	}
	pub := &memPublisher{}
	svc := newTestService(games, presence, pub, "p0", "p1", "p2", "p3", "p4")

	inserted, err := svc.Regenerate(context.Background(), "night")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inserted) != rotation.DefaultMaxRounds {
		t.Fatalf("expected %d queued games, got %d", rotation.DefaultMaxRounds, len(inserted))
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected one queue update published, got %d", len(pub.published))
	}
	var msg protocol.QueueUpdatedMsg
	if err := json.Unmarshal(pub.published[0], &msg); err != nil {
		t.Fatalf("published payload is not a queue update: %v", err)
	}
	if msg.SessionID != "night" || len(msg.Games) != len(inserted) {
		t.Errorf("unexpected queue update payload: %+v", msg)
	}
}

func TestRegenerateReplacesQueuedGames(t *testing.T) {
	games := &memGames{}
	presence := &memPresence{
		active: map[string][]string{"night": {"p0", "p1", "p2", "p3", "p4", "p5"}},
		stale:  map[string][]string{},
	}
	pub := &memPublisher{}
	svc := newTestService(games, presence, pub, "p0", "p1", "p2", "p3", "p4", "p5")

	first, err := svc.Regenerate(context.Background(), "night")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.Regenerate(context.Background(), "night")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The old queue is dropped, not appended to.
	all, _ := games.ListBySession(context.Background(), "night")
	if len(all) != len(second) {
		t.Fatalf("expected only the fresh queue to remain, got %d games", len(all))
	}
	for i, g := range second {
		if g.Number != first[i].Number {
			t.Errorf("game %d renumbered from %d to %d after rebuild", i, first[i].Number, g.Number)
		}
	}
}

func TestRegenerateKeepsCompletedHistory(t *testing.T) {
	games := &memGames{}
	presence := &memPresence{
		active: map[string][]string{"night": {"p0", "p1", "p2", "p3"}},
		stale:  map[string][]string{},
	}
	svc := newTestService(games, presence, &memPublisher{}, "p0", "p1", "p2", "p3")

	// A completed game of the only possible 4-subset already exists, so the
	// rebuilt queue can still re-field it (only queued subsets are blocked).
	games.games = append(games.games, game.Game{
		ID: "done", SessionID: "night", Number: 1,
		TeamA: [2]string{"p0", "p1"}, TeamB: [2]string{"p2", "p3"},
		Status: rotation.StatusCompleted, Winner: game.WinnerTeamA,
	})

	inserted, err := svc.Regenerate(context.Background(), "night")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inserted) != 1 {
		t.Fatalf("expected one new game after the completed one, got %d", len(inserted))
	}
	if inserted[0].Number != 2 {
		t.Errorf("expected new game numbered after history, got %d", inserted[0].Number)
	}

	all, _ := games.ListBySession(context.Background(), "night")
	if len(all) != 2 {
		t.Errorf("completed history must survive a rebuild, have %d games", len(all))
	}
}

func TestRegenerateSweepsStaleCheckInsFirst(t *testing.T) {
	games := &memGames{}
	presence := &memPresence{
		active: map[string][]string{"night": {"p0", "p1", "p2", "p3", "p4"}},
		stale:  map[string][]string{"night": {"p4"}},
	}
	svc := newTestService(games, presence, &memPublisher{}, "p0", "p1", "p2", "p3", "p4")

	inserted, err := svc.Regenerate(context.Background(), "night")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, g := range inserted {
		for _, id := range []string{g.TeamA[0], g.TeamA[1], g.TeamB[0], g.TeamB[1]} {
			if id == "p4" {
				t.Fatalf("swept player p4 still placed in %+v", g)
			}
		}
	}
}

func TestRegenerateTooFewPlayersPublishesEmptyQueue(t *testing.T) {
	games := &memGames{}
	presence := &memPresence{
		active: map[string][]string{"night": {"p0", "p1", "p2"}},
		stale:  map[string][]string{},
	}
	pub := &memPublisher{}
	svc := newTestService(games, presence, pub, "p0", "p1", "p2")

	inserted, err := svc.Regenerate(context.Background(), "night")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inserted) != 0 {
		t.Fatalf("expected empty queue for 3 players, got %d games", len(inserted))
	}

	// Watchers still hear about the (now empty) queue.
	if len(pub.published) != 1 {
		t.Fatalf("expected the empty queue to be published, got %d messages", len(pub.published))
	}
	var msg protocol.QueueUpdatedMsg
	if err := json.Unmarshal(pub.published[0], &msg); err != nil {
		t.Fatalf("published payload is not a queue update: %v", err)
	}
	if len(msg.Games) != 0 {
		t.Errorf("expected zero games in the update, got %d", len(msg.Games))
	}
}
