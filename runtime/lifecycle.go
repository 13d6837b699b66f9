package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
)

// HandlerFunc reacts to one inbound event kind on one session.
type HandlerFunc func(s *Session, data json.RawMessage) error

// Session is the per-connection lifecycle record. Its state only ever moves
// forward: Connecting -> Authenticated -> Active -> Closed, with a direct
// jump to Closed on handshake failure.
type Session struct {
	ID       domain.ConnID
	Identity domain.Identity
	sink     contract.EventSink
	state    atomic.Int32
	handlers map[event.Kind]HandlerFunc
}

// On registers an inbound handler. Handlers are installed before the
// session turns Active and are read-only afterwards, so dispatch needs no
// locking.
func (s *Session) On(kind event.Kind, fn HandlerFunc) {
	s.handlers[kind] = fn
}

func (s *Session) State() domain.ConnState {
	return domain.ConnState(s.state.Load())
}

func (s *Session) transition(from, to domain.ConnState) bool {
	return s.state.CompareAndSwap(int32(from), int32(to))
}

// Tracker owns every connection's lifecycle from handshake to teardown.
// It is the only component allowed to mutate the registry on behalf of a
// connection, which keeps membership and channel state in lockstep.
type Tracker struct {
	log         *slog.Logger
	auth        contract.IAuthenticator
	registry    contract.IRegistry
	dispatcher  contract.IDispatcher
	validate    *validator.Validate
	emitTimeout time.Duration
}

func NewTracker(log *slog.Logger, auth contract.IAuthenticator,
	registry contract.IRegistry, dispatcher contract.IDispatcher,
	emitTimeout time.Duration) *Tracker {
	return &Tracker{
		log:         log,
		auth:        auth,
		registry:    registry,
		dispatcher:  dispatcher,
		validate:    validator.New(),
		emitTimeout: emitTimeout,
	}
}

// Begin creates a session in the Connecting state, bound to its sink.
// The session holds no registry presence yet.
func (t *Tracker) Begin(sink contract.EventSink) *Session {
	s := &Session{
		ID:       domain.NewConnID(),
		sink:     sink,
		handlers: make(map[event.Kind]HandlerFunc),
	}
	s.state.Store(int32(domain.StateConnecting))
	return s
}

// Authenticate drives the handshake. On success the session is registered,
// auto-joined to its identity room, told CONNECTED, and becomes Active.
// On any failure the session is told why via SOCKET_ERROR and is Closed
// without ever having touched the registry.
func (t *Tracker) Authenticate(ctx context.Context, s *Session, creds contract.Credentials) error {
	identity, err := t.auth.Authenticate(ctx, creds)
	if err != nil {
		t.emit(s, event.SocketError, event.ErrorPayload{Message: err.Error()})
		s.state.Store(int32(domain.StateClosed))
		return err
	}

	if !s.transition(domain.StateConnecting, domain.StateAuthenticated) {
		return fmt.Errorf("%w: %s", errors.ErrInvalidState, s.State())
	}

	s.Identity = identity
	t.registry.Register(s.ID, s.sink)
	// Direct-to-user delivery works from the first instant of Active,
	// without the client subscribing to anything.
	t.registry.Join(domain.UserRoom(identity.ID), s.ID)
	t.registerCoreHandlers(s)

	if !s.transition(domain.StateAuthenticated, domain.StateActive) {
		t.registry.Drop(s.ID)
		return fmt.Errorf("%w: %s", errors.ErrInvalidState, s.State())
	}

	t.emit(s, event.Connected, event.ConnectedPayload{
		UserID:   identity.ID,
		Username: identity.Username,
		Avatar:   identity.Avatar,
	})
	t.log.Info("Connection active", "conn_id", string(s.ID), "user_id", identity.ID)
	return nil
}

// HandleEvent routes one client-originated event. A failure here is
// answered with SOCKET_ERROR on the offending connection only; it never
// propagates to other connections or crashes the process.
func (t *Tracker) HandleEvent(s *Session, evt event.Event) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("Handler panic", "conn_id", string(s.ID), "kind", evt.Kind, "panic", r)
			t.emit(s, event.SocketError, event.ErrorPayload{Message: "internal error"})
		}
	}()

	if s.State() != domain.StateActive {
		return
	}

	fn, ok := s.handlers[evt.Kind]
	if !ok {
		t.log.Debug("Ignoring unhandled event", "conn_id", string(s.ID), "kind", evt.Kind)
		return
	}

	if err := fn(s, evt.Data); err != nil {
		t.log.Warn("Client event rejected", "conn_id", string(s.ID), "kind", evt.Kind, "error", err)
		t.emit(s, event.SocketError, event.ErrorPayload{Message: err.Error()})
	}
}

// Close tears the session down. Membership removal is one atomic registry
// operation, so no observer sees a partially-departed connection.
func (t *Tracker) Close(s *Session) {
	prev := domain.ConnState(s.state.Swap(int32(domain.StateClosed)))
	if prev == domain.StateClosed {
		return
	}
	if prev == domain.StateActive || prev == domain.StateAuthenticated {
		t.registry.Drop(s.ID)
	}
	t.log.Info("Connection closed", "conn_id", string(s.ID), "user_id", s.Identity.ID)
}

// registerCoreHandlers installs the inbound events the core itself reacts
// to. Anything else on the wire is forwarded state owned by write-path
// collaborators and is ignored here.
func (t *Tracker) registerCoreHandlers(s *Session) {
	s.On(event.JoinChat, t.handleJoinChat)
	s.On(event.TypingStart, t.typingHandler(event.TypingStart))
	s.On(event.TypingStop, t.typingHandler(event.TypingStop))
	s.On(event.Disconnect, func(s *Session, _ json.RawMessage) error {
		t.Close(s)
		return nil
	})
}

func (t *Tracker) handleJoinChat(s *Session, data json.RawMessage) error {
	payload, err := t.roomPayload(data)
	if err != nil {
		return err
	}
	t.registry.Join(domain.ChatRoom(payload.ChatID), s.ID)
	return nil
}

// Typing indicators are pure transient fanout: re-broadcast to the other
// members of the room, never persisted, sender excluded.
func (t *Tracker) typingHandler(kind event.Kind) HandlerFunc {
	return func(s *Session, data json.RawMessage) error {
		payload, err := t.roomPayload(data)
		if err != nil {
			return err
		}
		t.dispatcher.BroadcastExcept(domain.ChatRoom(payload.ChatID), s.ID, kind, event.TypingPayload{
			ChatID:   payload.ChatID,
			UserID:   s.Identity.ID,
			Username: s.Identity.Username,
		})
		return nil
	}
}

func (t *Tracker) roomPayload(data json.RawMessage) (event.RoomPayload, error) {
	var payload event.RoomPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("malformed payload: %w", err)
	}
	if err := t.validate.Struct(payload); err != nil {
		return payload, fmt.Errorf("invalid payload: %w", err)
	}
	return payload, nil
}

func (t *Tracker) emit(s *Session, kind event.Kind, payload any) {
	evt, err := event.New(kind, payload)
	if err != nil {
		t.log.Error("Unmarshalable emit payload", "kind", kind, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.emitTimeout)
	defer cancel()
	if err := s.sink.Consume(ctx, evt); err != nil {
		t.log.Warn("Emit failed", "conn_id", string(s.ID), "kind", kind, "error", err)
	}
}
