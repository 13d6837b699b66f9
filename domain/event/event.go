package event

import (
	"encoding/json"
	"fmt"
)

// Kind names an event on the wire. The relay forwards payloads verbatim;
// only the kinds below carry meaning for the core itself.
type Kind string

const (
	Connected       Kind = "CONNECTED"
	Disconnect      Kind = "DISCONNECT"
	JoinChat        Kind = "JOIN_CHAT"
	TypingStart     Kind = "TYPING_START"
	TypingStop      Kind = "TYPING_STOP"
	MessageReceived Kind = "MESSAGE_RECEIVED"
	MessageDelete   Kind = "MESSAGE_DELETE"
	NewChat         Kind = "NEW_CHAT"
	UpdateGroupName Kind = "UPDATE_GROUP_NAME"
	LeaveChat       Kind = "LEAVE_CHAT"
	SocketError     Kind = "SOCKET_ERROR"
)

// Event is the wire envelope shared by both directions of a connection.
// Data is kept raw: the relay never interprets write-path payloads.
type Event struct {
	Kind Kind            `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// New builds an envelope from any marshalable payload.
func New(kind Kind, payload any) (Event, error) {
	if payload == nil {
		return Event{Kind: kind}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return Event{Kind: kind, Data: data}, nil
}

// MustNew is New for payloads the caller fully controls.
func MustNew(kind Kind, payload any) Event {
	evt, err := New(kind, payload)
	if err != nil {
		panic(err)
	}
	return evt
}
