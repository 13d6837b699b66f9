//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
	"time"
)

// EventSink is one connection's outbound half. Consume must respect ctx:
// the dispatcher bounds every delivery attempt with a timeout.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// Member pairs a connection handle with its sink, as snapshotted by the
// registry for one delivery round.
type Member struct {
	Conn domain.ConnID
	Sink EventSink
}

type IRegistry interface {
	Register(connID domain.ConnID, sink EventSink)
	Join(roomID domain.RoomID, connID domain.ConnID)
	Leave(roomID domain.RoomID, connID domain.ConnID)
	MembersOf(roomID domain.RoomID) []Member
	Drop(connID domain.ConnID)
}

type IDispatcher interface {
	Broadcast(roomID domain.RoomID, kind event.Kind, payload any)
	BroadcastExcept(roomID domain.RoomID, exclude domain.ConnID, kind event.Kind, payload any)
	ToUser(userID string, kind event.Kind, payload any)
}

// TokenClaims is what a verified bearer credential asserts.
type TokenClaims struct {
	Subject string
	Expiry  time.Time
}

type CredentialVerifier interface {
	Verify(tokenString string) (TokenClaims, error)
}

type IdentityStore interface {
	FindByID(ctx context.Context, id string) (domain.Identity, error)
}

// Credentials are the two handshake credential sources. The cookie-carried
// token wins when both are present.
type Credentials struct {
	CookieToken string
	AuthToken   string
}

type IAuthenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (domain.Identity, error)
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
