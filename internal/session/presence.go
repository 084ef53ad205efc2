package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// PresencePrefix is the Redis key prefix for per-session presence sets.
	PresencePrefix = "presence:"

	// PlayerPrefix is the Redis key prefix for per-player check-in markers.
	PlayerPrefix = "presence:player:"

	// CheckInTTL is how long a check-in stays valid without a refresh.
	// A club night never runs longer than this.
	CheckInTTL = 6 * time.Hour
)

// Presence tracks which players are checked in to which session, in Redis.
// The session set has no TTL of its own; stale members are swept out when
// their per-player marker expires.
type Presence struct {
	client *redis.Client
}

// NewPresence creates a presence tracker connected to Redis.
func NewPresence(redisAddr string) (*Presence, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	// Verify connection.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: redis connection failed: %w", err)
	}

	return &Presence{client: client}, nil
}

// CheckIn adds a player to the session's presence set and records which
// session they are in. A player can only be in one session at a time; a
// check-in while already present elsewhere moves them.
func (p *Presence) CheckIn(ctx context.Context, sessionID, playerID string) error {
	prev, err := p.Find(ctx, playerID)
	if err != nil {
		return err
	}
	if prev != "" && prev != sessionID {
		if err := p.CheckOut(ctx, prev, playerID); err != nil {
			return err
		}
	}

	pipe := p.client.Pipeline()
	pipe.SAdd(ctx, PresencePrefix+sessionID, playerID)
	pipe.Set(ctx, PlayerPrefix+playerID, sessionID, CheckInTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: check in %s: %w", playerID, err)
	}
	return nil
}

// CheckOut removes a player from the session's presence set.
func (p *Presence) CheckOut(ctx context.Context, sessionID, playerID string) error {
	pipe := p.client.Pipeline()
	pipe.SRem(ctx, PresencePrefix+sessionID, playerID)
	pipe.Del(ctx, PlayerPrefix+playerID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: check out %s: %w", playerID, err)
	}
	return nil
}

// Find returns the session a player is checked in to, or "" if none.
func (p *Presence) Find(ctx context.Context, playerID string) (string, error) {
	sessionID, err := p.client.Get(ctx, PlayerPrefix+playerID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: find %s: %w", playerID, err)
	}
	return sessionID, nil
}

// ActivePlayers returns the checked-in players of a session, sorted by ID.
// Read-only: it does not sweep stale members, see Sweep.
func (p *Presence) ActivePlayers(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := p.client.SMembers(ctx, PresencePrefix+sessionID).Result()
	if err != nil {
		return nil, fmt.Errorf("session: active players: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Sweep removes members of the session's presence set whose per-player
// marker has expired, returning the IDs it removed. The scheduler runs this
// before building a queue so that no-shows stop being placed in games.
func (p *Presence) Sweep(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := p.client.SMembers(ctx, PresencePrefix+sessionID).Result()
	if err != nil {
		return nil, fmt.Errorf("session: sweep members: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := p.client.Pipeline()
	gets := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		gets[i] = pipe.Get(ctx, PlayerPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("session: sweep lookup: %w", err)
	}

	var stale []string
	for i, cmd := range gets {
		// Present but pointing at another session counts as stale here too.
		if v, err := cmd.Result(); err == redis.Nil || (err == nil && v != sessionID) {
			stale = append(stale, ids[i])
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	members := make([]interface{}, len(stale))
	for i, id := range stale {
		members[i] = id
	}
	if err := p.client.SRem(ctx, PresencePrefix+sessionID, members...).Err(); err != nil {
		return nil, fmt.Errorf("session: sweep remove: %w", err)
	}
	return stale, nil
}

// Clear drops the session's presence set and every member's marker. Called
// when a session closes.
func (p *Presence) Clear(ctx context.Context, sessionID string) error {
	ids, err := p.client.SMembers(ctx, PresencePrefix+sessionID).Result()
	if err != nil {
		return fmt.Errorf("session: clear members: %w", err)
	}

	pipe := p.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, PlayerPrefix+id)
	}
	pipe.Del(ctx, PresencePrefix+sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// Client exposes the underlying Redis client so other components (e.g. the
// rate limiter) can share the connection.
func (p *Presence) Client() *redis.Client {
	return p.client
}

// Close releases the Redis connection.
func (p *Presence) Close() error {
	return p.client.Close()
}
