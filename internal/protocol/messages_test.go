package protocol

import (
	"encoding/json"
	"testing"
)

// ---------------------------------------------------------------------------
// Test: Parsing a valid check_in message
// ---------------------------------------------------------------------------

func TestParseClientMessage_CheckIn(t *testing.T) {
	input := []byte(`{"type":"check_in","session_id":"night-1","player_id":"p-42"}`)

	msgType, msg, err := ParseClientMessage(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgType != TypeCheckIn {
		t.Fatalf("expected type %q, got %q", TypeCheckIn, msgType)
	}

	ci, ok := msg.(CheckInMsg)
	if !ok {
		t.Fatalf("expected CheckInMsg, got %T", msg)
	}
	if ci.SessionID != "night-1" {
		t.Errorf("expected session_id %q, got %q", "night-1", ci.SessionID)
	}
	if ci.PlayerID != "p-42" {
		t.Errorf("expected player_id %q, got %q", "p-42", ci.PlayerID)
	}
}

// ---------------------------------------------------------------------------
// Test: Parsing a valid record_result message
// ---------------------------------------------------------------------------

func TestParseClientMessage_RecordResult(t *testing.T) {
	input := []byte(`{"type":"record_result","game_id":"g-7","winner":"A"}`)

	msgType, msg, err := ParseClientMessage(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgType != TypeRecordResult {
		t.Fatalf("expected type %q, got %q", TypeRecordResult, msgType)
	}

	rr, ok := msg.(RecordResultMsg)
	if !ok {
		t.Fatalf("expected RecordResultMsg, got %T", msg)
	}
	if rr.GameID != "g-7" {
		t.Errorf("expected game_id %q, got %q", "g-7", rr.GameID)
	}
	if rr.Winner != "A" {
		t.Errorf("expected winner %q, got %q", "A", rr.Winner)
	}
}

// ---------------------------------------------------------------------------
// Test: Creating a queue_updated server message
// ---------------------------------------------------------------------------

func TestNewServerMessage_QueueUpdated(t *testing.T) {
	payload := QueueUpdatedMsg{
		SessionID: "night-1",
		Games: []QueuedGame{
			{GameID: "g-1", Number: 4, TeamA: [2]string{"p1", "p2"}, TeamB: [2]string{"p3", "p4"}},
			{GameID: "g-2", Number: 5, TeamA: [2]string{"p1", "p5"}, TeamB: [2]string{"p2", "p3"}},
		},
	}

	data, err := NewServerMessage(TypeQueueUpdated, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Decode back and verify structure.
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}

	if result["type"] != TypeQueueUpdated {
		t.Errorf("expected type %q, got %v", TypeQueueUpdated, result["type"])
	}
	if result["session_id"] != "night-1" {
		t.Errorf("expected session_id %q, got %v", "night-1", result["session_id"])
	}

	games, ok := result["games"].([]interface{})
	if !ok {
		t.Fatalf("expected games to be an array, got %T", result["games"])
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}

	first, ok := games[0].(map[string]interface{})
	if !ok {
		t.Fatalf("expected game object, got %T", games[0])
	}
	if first["game_id"] != "g-1" {
		t.Errorf("expected game_id %q, got %v", "g-1", first["game_id"])
	}
	if n, ok := first["number"].(float64); !ok || int(n) != 4 {
		t.Errorf("expected number 4, got %v", first["number"])
	}
}

// ---------------------------------------------------------------------------
// Test: Parsing an unknown message type returns an error
// ---------------------------------------------------------------------------

func TestParseClientMessage_UnknownType(t *testing.T) {
	input := []byte(`{"type":"unknown_type","data":"something"}`)

	msgType, msg, err := ParseClientMessage(input)
	if err == nil {
		t.Fatal("expected an error for unknown message type, got nil")
	}
	if msg != nil {
		t.Errorf("expected nil message for unknown type, got %v", msg)
	}
	if msgType != "unknown_type" {
		t.Errorf("expected returned type %q, got %q", "unknown_type", msgType)
	}
}

// ---------------------------------------------------------------------------
// Test: Round-trip fidelity (marshal -> unmarshal)
// ---------------------------------------------------------------------------

func TestRoundTrip_OpenSession(t *testing.T) {
	original := OpenSessionMsg{
		Type:           TypeOpenSession,
		Title:          "tuesday night",
		CourtCostCents: 12000,
	}

	// Marshal to JSON.
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	// Parse back through the protocol parser.
	msgType, msg, err := ParseClientMessage(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgType != TypeOpenSession {
		t.Fatalf("expected type %q, got %q", TypeOpenSession, msgType)
	}

	decoded, ok := msg.(OpenSessionMsg)
	if !ok {
		t.Fatalf("expected OpenSessionMsg, got %T", msg)
	}
	if decoded.Title != original.Title {
		t.Errorf("title mismatch: expected %q, got %q", original.Title, decoded.Title)
	}
	if decoded.CourtCostCents != original.CourtCostCents {
		t.Errorf("court_cost_cents mismatch: expected %d, got %d", original.CourtCostCents, decoded.CourtCostCents)
	}
}

// ---------------------------------------------------------------------------
// Test: Envelope UnmarshalJSON edge cases
// ---------------------------------------------------------------------------

func TestEnvelope_MissingType(t *testing.T) {
	input := []byte(`{"data":"no type field"}`)
	var env Envelope
	if err := json.Unmarshal(input, &env); err == nil {
		t.Fatal("expected error for missing type field, got nil")
	}
}

func TestEnvelope_InvalidJSON(t *testing.T) {
	input := []byte(`{invalid json}`)
	var env Envelope
	if err := json.Unmarshal(input, &env); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

// ---------------------------------------------------------------------------
// Test: Parsing all client message types succeeds
// ---------------------------------------------------------------------------

func TestParseClientMessage_AllTypes(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		wantType string
	}{
		{"register", `{"type":"register","name":"sam"}`, TypeRegister},
		{"open_session", `{"type":"open_session","title":"night","court_cost_cents":9000}`, TypeOpenSession},
		{"close_session", `{"type":"close_session","session_id":"s1"}`, TypeCloseSession},
		{"check_in", `{"type":"check_in","session_id":"s1","player_id":"p1"}`, TypeCheckIn},
		{"check_out", `{"type":"check_out","session_id":"s1","player_id":"p1"}`, TypeCheckOut},
		{"start_game", `{"type":"start_game","game_id":"g1"}`, TypeStartGame},
		{"record_result", `{"type":"record_result","game_id":"g1","winner":"B"}`, TypeRecordResult},
		{"watch_session", `{"type":"watch_session","session_id":"s1"}`, TypeWatchSession},
		{"ping", `{"type":"ping"}`, TypePing},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msgType, msg, err := ParseClientMessage([]byte(tc.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msgType != tc.wantType {
				t.Errorf("expected type %q, got %q", tc.wantType, msgType)
			}
			if msg == nil {
				t.Error("expected non-nil message")
			}
		})
	}
}
