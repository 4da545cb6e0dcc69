package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/botarena/holdem/internal/engine"
)

// Codec errors. ErrBadSchema maps onto the BAD_SCHEMA wire code;
// ErrUnknownType frames are dropped silently per the error policy.
var (
	ErrBadSchema   = errors.New("malformed frame")
	ErrUnknownType = errors.New("unknown frame type")
)

type envelopeHead struct {
	Type string `json:"type"`
	V    *int   `json:"v"`
}

// Decode validates one inbound text frame and returns its typed value.
func Decode(data []byte) (Inbound, error) {
	var head envelopeHead
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSchema, err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrBadSchema)
	}
	if head.V != nil && *head.V != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSchema, *head.V)
	}

	switch head.Type {
	case TypeHello:
		var msg Hello
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSchema, err)
		}
		return msg, nil

	case TypeAction:
		var msg Action
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSchema, err)
		}
		if msg.HandID == "" || msg.Action == "" {
			return nil, fmt.Errorf("%w: hand_id and action required", ErrBadSchema)
		}
		if msg.Action == engine.RaiseTo.String() && msg.Amount == nil {
			return nil, fmt.Errorf("%w: amount required for RAISE_TO", ErrBadSchema)
		}
		return msg, nil

	case TypeControl:
		var msg Control
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSchema, err)
		}
		if msg.Command == "" {
			return nil, fmt.Errorf("%w: command required", ErrBadSchema)
		}
		return msg, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, head.Type)
	}
}

// Marshal flattens a payload struct into a versioned envelope. The
// payload's fields sit next to type/v/ts at the top level.
func Marshal(msgType string, payload any, ts time.Time) ([]byte, error) {
	body := map[string]any{}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, err
		}
	}
	body["type"] = msgType
	body["v"] = Version
	if !ts.IsZero() {
		body["ts"] = ts.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(body)
}

// MarshalEvent wraps an engine event into an event envelope carrying the
// ev discriminator, e.g. {"type":"event","v":1,"ev":"FOLD","seat":2}.
func MarshalEvent(msgType string, ev engine.Event, ts time.Time) ([]byte, error) {
	body := map[string]any{}
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	body["type"] = msgType
	body["v"] = Version
	body["ev"] = ev.Ev()
	if !ts.IsZero() {
		body["ts"] = ts.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(body)
}
