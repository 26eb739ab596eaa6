package event

import (
	"encoding/json"
	"fmt"
)

// Type discriminates progress events on the wire.
type Type string

// Event types.
const (
	TypeStatus  Type = "status"
	TypeResults Type = "results"
	TypeError   Type = "error"
)

// Event is one unit of the progress stream: Status, Results or Error.
type Event interface {
	Type() Type
	// Terminal reports whether the event closes the stream.
	Terminal() bool
	isEvent()
}

// Status reports intermediate progress.
type Status struct {
	Message string
}

// Results delivers the ranked, normalized items.
type Results struct {
	Items []map[string]any
}

// Error reports a fatal failure with a message safe to show to users.
type Error struct {
	Message string
}

func (Status) Type() Type  { return TypeStatus }
func (Results) Type() Type { return TypeResults }
func (Error) Type() Type   { return TypeError }

func (Status) Terminal() bool  { return false }
func (Results) Terminal() bool { return true }
func (Error) Terminal() bool   { return true }

func (Status) isEvent()  {}
func (Results) isEvent() {}
func (Error) isEvent()   {}

type messageWire struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

type resultsWire struct {
	Type  Type             `json:"type"`
	Items []map[string]any `json:"items"`
}

// MarshalJSON encodes {"type":"status","message":...}.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageWire{Type: TypeStatus, Message: s.Message})
}

// MarshalJSON encodes {"type":"results","items":[...]}. Nil items encode as [].
func (r Results) MarshalJSON() ([]byte, error) {
	items := r.Items
	if items == nil {
		items = []map[string]any{}
	}
	return json.Marshal(resultsWire{Type: TypeResults, Items: items})
}

// MarshalJSON encodes {"type":"error","message":...}.
func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageWire{Type: TypeError, Message: e.Message})
}

// Decode parses one wire event.
func Decode(data []byte) (Event, error) {
	var head struct {
		Type    Type             `json:"type"`
		Message string           `json:"message"`
		Items   []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	switch head.Type {
	case TypeStatus:
		return Status{Message: head.Message}, nil
	case TypeResults:
		return Results{Items: head.Items}, nil
	case TypeError:
		return Error{Message: head.Message}, nil
	default:
		return nil, fmt.Errorf("decode event: unknown type %q", head.Type)
	}
}
