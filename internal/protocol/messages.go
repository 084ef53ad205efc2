// Package protocol defines the WebSocket message types and structures used for
// communication between the client and server. All messages are serialized as
// JSON and follow a consistent envelope format with a type discriminator.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// Message type constants
// ---------------------------------------------------------------------------

// Client -> Server message types.
const (
	TypeRegister     = "register"
	TypeOpenSession  = "open_session"
	TypeCloseSession = "close_session"
	TypeCheckIn      = "check_in"
	TypeCheckOut     = "check_out"
	TypeStartGame    = "start_game"
	TypeRecordResult = "record_result"
	TypeWatchSession = "watch_session"
	TypePing         = "ping"
)

// Server -> Client message types.
const (
	TypeConnected     = "connected"
	TypeRegistered    = "registered"
	TypeSessionOpened = "session_opened"
	TypeCheckedIn     = "checked_in"
	TypeQueueUpdated  = "queue_updated"
	TypeGameStarted   = "game_started"
	TypeGameCompleted = "game_completed"
	TypeSessionClosed = "session_closed"
	TypeRateLimited   = "rate_limited"
	TypeError         = "error"
	TypePong          = "pong"
)

// ---------------------------------------------------------------------------
// Envelope — used for initial JSON parsing to extract the type discriminator.
// ---------------------------------------------------------------------------

// Envelope holds the message type and the raw JSON payload for deferred
// parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements the json.Unmarshaler interface. It captures the
// full raw bytes and extracts only the "type" field so that the rest of the
// payload can be decoded later into the appropriate concrete struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	// Capture the full raw message for deferred parsing.
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	// Extract only the type field.
	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ---------------------------------------------------------------------------
// Client -> Server message structs
// ---------------------------------------------------------------------------

// RegisterMsg is sent by the client to create a new player record.
type RegisterMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// OpenSessionMsg is sent by an organizer to open a new club-night session.
type OpenSessionMsg struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	CourtCostCents int64  `json:"court_cost_cents"`
}

// CloseSessionMsg is sent by an organizer to close a session and trigger
// billing.
type CloseSessionMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// CheckInMsg is sent by the client to check a player in to a session.
type CheckInMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
}

// CheckOutMsg is sent by the client to check a player out of a session.
type CheckOutMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
}

// StartGameMsg is sent by the client to move a queued game onto the court.
type StartGameMsg struct {
	Type   string `json:"type"`
	GameID string `json:"game_id"`
}

// RecordResultMsg is sent by the client to record which team won a game.
type RecordResultMsg struct {
	Type   string `json:"type"`
	GameID string `json:"game_id"`
	Winner string `json:"winner"` // "A" or "B"
}

// WatchSessionMsg subscribes the connection to a session's queue updates.
type WatchSessionMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// PingMsg is a client-initiated keepalive ping.
type PingMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Server -> Client message structs
// ---------------------------------------------------------------------------

// ConnectedMsg is sent by the server when a new connection is established.
type ConnectedMsg struct {
	Type   string `json:"type"`
	ConnID string `json:"conn_id"`
}

// RegisteredMsg confirms a new player record.
type RegisteredMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// SessionOpenedMsg confirms a newly opened session.
type SessionOpenedMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
}

// CheckedInMsg confirms a check-in or check-out and reports the session's
// current headcount.
type CheckedInMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
	CheckedIn bool   `json:"checked_in"`
	Active    int    `json:"active"`
}

// QueuedGame is one upcoming game in a queue update.
type QueuedGame struct {
	GameID string    `json:"game_id"`
	Number int       `json:"number"`
	TeamA  [2]string `json:"team_a"`
	TeamB  [2]string `json:"team_b"`
}

// QueueUpdatedMsg carries a session's freshly built game queue.
type QueueUpdatedMsg struct {
	Type      string       `json:"type"`
	SessionID string       `json:"session_id"`
	Games     []QueuedGame `json:"games"`
}

// GameStartedMsg confirms that a queued game moved to playing.
type GameStartedMsg struct {
	Type   string `json:"type"`
	GameID string `json:"game_id"`
}

// GameCompletedMsg confirms a recorded result.
type GameCompletedMsg struct {
	Type      string `json:"type"`
	GameID    string `json:"game_id"`
	SessionID string `json:"session_id"`
	Winner    string `json:"winner"`
}

// SessionClosedMsg confirms that a session was closed.
type SessionClosedMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// RateLimitedMsg is sent by the server when the client has been rate-limited.
type RateLimitedMsg struct {
	Type       string `json:"type"`
	RetryAfter int    `json:"retry_after"`
}

// ErrorMsg is sent by the server to communicate an error condition.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongMsg is the server's response to a client ping.
type PongMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// ParseClientMessage parses raw WebSocket bytes into a typed client message.
// It returns the message type string, the decoded struct, and any error
// encountered during parsing. An error is returned for unknown or
// server-only message types.
func ParseClientMessage(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("protocol: failed to parse message: %w", err)
	}

	var (
		msg interface{}
		err error
	)

	switch env.Type {
	case TypeRegister:
		var m RegisterMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeOpenSession:
		var m OpenSessionMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeCloseSession:
		var m CloseSessionMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeCheckIn:
		var m CheckInMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeCheckOut:
		var m CheckOutMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeStartGame:
		var m StartGameMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeRecordResult:
		var m RecordResultMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeWatchSession:
		var m WatchSessionMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypePing:
		var m PingMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	default:
		return env.Type, nil, fmt.Errorf("protocol: unknown client message type: %q", env.Type)
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("protocol: failed to decode %q payload: %w", env.Type, err)
	}
	return env.Type, msg, nil
}

// NewServerMessage creates a JSON-encoded byte slice for a server message.
// The msgType is injected into the payload under the "type" key. The payload
// should be one of the Server*Msg structs; this function marshals it to JSON,
// injects the type field, and returns the final bytes.
func NewServerMessage(msgType string, payload interface{}) ([]byte, error) {
	// Marshal the payload struct to a generic map so we can ensure the "type"
	// field is present and correct.
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal payload: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("protocol: failed to unmarshal payload into map: %w", err)
	}

	m["type"] = msgType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal server message: %w", err)
	}
	return out, nil
}
