package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botarena/holdem/internal/engine"
)

func TestDecodeHello(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"hello","v":1,"team":"Crushers","join_code":"abc"}`))
	require.NoError(t, err)

	hello, ok := msg.(Hello)
	require.True(t, ok)
	assert.Equal(t, "Crushers", hello.Team)
	assert.Equal(t, "abc", hello.JoinCode)
}

func TestDecodeSpectatorHello(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"hello","role":"operator","mode":"live"}`))
	require.NoError(t, err)

	hello, ok := msg.(Hello)
	require.True(t, ok)
	assert.Equal(t, RoleOperator, hello.Role)
	assert.Equal(t, ModeLive, hello.Mode)
}

func TestDecodeAction(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"action","v":1,"hand_id":"H-20250314-00001","action":"RAISE_TO","amount":400}`))
	require.NoError(t, err)

	action, ok := msg.(Action)
	require.True(t, ok)
	assert.Equal(t, "H-20250314-00001", action.HandID)
	assert.Equal(t, "RAISE_TO", action.Action)
	require.NotNil(t, action.Amount)
	assert.Equal(t, 400, *action.Amount)
}

func TestDecodeControl(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"control","command":"FORFEIT_SEAT","seat":3}`))
	require.NoError(t, err)

	control, ok := msg.(Control)
	require.True(t, ok)
	assert.Equal(t, CommandForfeitSeat, control.Command)
	require.NotNil(t, control.Seat)
	assert.Equal(t, 3, *control.Seat)
}

func TestDecodeBadSchema(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"not json", `{{{`},
		{"missing type", `{"v":1}`},
		{"wrong version", `{"type":"hello","v":2,"team":"x"}`},
		{"action without hand id", `{"type":"action","action":"FOLD"}`},
		{"action without name", `{"type":"action","hand_id":"H-20250314-00001"}`},
		{"raise without amount", `{"type":"action","hand_id":"H-20250314-00001","action":"RAISE_TO"}`},
		{"control without command", `{"type":"control"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.frame))
			assert.ErrorIs(t, err, ErrBadSchema)
		})
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"telemetry","v":1}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestMarshalFlattensPayload(t *testing.T) {
	ts := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	data, err := Marshal(TypeError, ErrorMsg{Code: CodeOutOfTurn, Msg: "not your turn"}, ts)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "error", body["type"])
	assert.Equal(t, float64(1), body["v"])
	assert.Equal(t, "2025-03-14T12:00:00Z", body["ts"])
	// Payload fields sit at the top level, not nested.
	assert.Equal(t, "OUT_OF_TURN", body["code"])
	assert.Equal(t, "not your turn", body["msg"])
}

func TestMarshalOmitsZeroTimestamp(t *testing.T) {
	data, err := Marshal(TypeLobby, Lobby{}, time.Time{})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	_, present := body["ts"]
	assert.False(t, present)
}

func TestMarshalEvent(t *testing.T) {
	ev := engine.FoldEvent{Seat: 2}
	data, err := MarshalEvent(TypeEvent, ev, time.Time{})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "event", body["type"])
	assert.Equal(t, "FOLD", body["ev"])
	assert.Equal(t, float64(2), body["seat"])
	assert.Equal(t, float64(1), body["v"])
}
