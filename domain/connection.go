package domain

import "github.com/google/uuid"

// ConnID is the opaque handle of one persistent connection. A user holding
// several simultaneous sessions owns one ConnID per session.
type ConnID string

func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

// ConnState is the lifecycle position of a connection.
// Connecting -> Authenticated -> Active -> Closed, with a direct
// Connecting -> Closed shortcut on handshake failure.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateAuthenticated
	StateActive
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}
