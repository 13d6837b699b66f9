package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/mocks"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// captureSink records everything emitted to one connection.
type captureSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *captureSink) Consume(_ context.Context, e event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *captureSink) kinds() []event.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]event.Kind, 0, len(c.events))
	for _, e := range c.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func newTestTracker(t *testing.T, auth contract.IAuthenticator, dispatcher contract.IDispatcher) (*Tracker, *Registry) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry()
	return NewTracker(log, auth, registry, dispatcher, time.Second), registry
}

func activeSession(t *testing.T, tracker *Tracker, sink contract.EventSink, identity domain.Identity,
	mockAuth *mocks.MockIAuthenticator) *Session {
	t.Helper()
	mockAuth.EXPECT().Authenticate(gomock.Any(), gomock.Any()).Return(identity, nil).Times(1)
	s := tracker.Begin(sink)
	require.NoError(t, tracker.Authenticate(context.Background(), s, contract.Credentials{CookieToken: "token"}))
	return s
}

func TestTracker_Successful_Handshake_Activates_And_Autojoins(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockAuth := mocks.NewMockIAuthenticator(ctrl)
	tracker, registry := newTestTracker(t, mockAuth, mocks.NewMockIDispatcher(ctrl))

	sink := &captureSink{}
	identity := domain.Identity{ID: "u1", Username: "alice"}

	// Given a session in the connecting state
	s := tracker.Begin(sink)
	req.Equal(domain.StateConnecting, s.State())

	// When the handshake succeeds
	mockAuth.EXPECT().Authenticate(gomock.Any(), gomock.Any()).Return(identity, nil).Times(1)
	err := tracker.Authenticate(context.Background(), s, contract.Credentials{CookieToken: "token"})

	// Then the session is active, in exactly its identity room,
	// and the client was told CONNECTED
	req.NoError(err)
	req.Equal(domain.StateActive, s.State())
	req.Equal(identity, s.Identity)
	req.Len(registry.RoomMembers, 1)
	req.Len(registry.MembersOf(domain.UserRoom("u1")), 1)
	req.Equal([]event.Kind{event.Connected}, sink.kinds())
}

func TestTracker_Failed_Handshake_Closes_Without_Registry_Trace(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockAuth := mocks.NewMockIAuthenticator(ctrl)
	tracker, registry := newTestTracker(t, mockAuth, mocks.NewMockIDispatcher(ctrl))

	sink := &captureSink{}
	s := tracker.Begin(sink)

	// When the credential is rejected
	mockAuth.EXPECT().Authenticate(gomock.Any(), gomock.Any()).
		Return(domain.Identity{}, errors.ErrInvalidToken).Times(1)
	err := tracker.Authenticate(context.Background(), s, contract.Credentials{AuthToken: "bad"})

	// Then the session went straight to closed, was told why,
	// and never appeared in any room
	req.ErrorIs(err, errors.ErrInvalidToken)
	req.Equal(domain.StateClosed, s.State())
	req.Equal([]event.Kind{event.SocketError}, sink.kinds())
	req.Empty(registry.Sessions)
	req.Empty(registry.RoomMembers)
}

func TestTracker_JoinChat_Adds_The_Connection_To_The_Room(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockAuth := mocks.NewMockIAuthenticator(ctrl)
	tracker, registry := newTestTracker(t, mockAuth, mocks.NewMockIDispatcher(ctrl))

	sink := &captureSink{}
	s := activeSession(t, tracker, sink, domain.Identity{ID: "u1"}, mockAuth)

	// When the client joins a conversation
	tracker.HandleEvent(s, event.MustNew(event.JoinChat, event.RoomPayload{ChatID: "chat42"}))

	// Then the connection is in the chat room on top of its identity room
	req.Len(registry.MembersOf(domain.ChatRoom("chat42")), 1)
	req.Len(registry.MembersOf(domain.UserRoom("u1")), 1)
}

func TestTracker_Typing_Is_Rebroadcast_Excluding_The_Sender(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockAuth := mocks.NewMockIAuthenticator(ctrl)
	mockDispatcher := mocks.NewMockIDispatcher(ctrl)
	tracker, _ := newTestTracker(t, mockAuth, mockDispatcher)

	sink := &captureSink{}
	s := activeSession(t, tracker, sink, domain.Identity{ID: "u1", Username: "alice"}, mockAuth)

	// Then the indicator goes to the other members only, attributed to u1
	mockDispatcher.EXPECT().BroadcastExcept(
		domain.ChatRoom("chat42"), s.ID, event.TypingStart,
		event.TypingPayload{ChatID: "chat42", UserID: "u1", Username: "alice"},
	).Times(1)

	// When the client starts typing
	tracker.HandleEvent(s, event.MustNew(event.TypingStart, event.RoomPayload{ChatID: "chat42"}))
}

func TestTracker_Disconnect_Event_Tears_The_Session_Down(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockAuth := mocks.NewMockIAuthenticator(ctrl)
	tracker, registry := newTestTracker(t, mockAuth, mocks.NewMockIDispatcher(ctrl))

	sink := &captureSink{}
	s := activeSession(t, tracker, sink, domain.Identity{ID: "u1"}, mockAuth)
	tracker.HandleEvent(s, event.MustNew(event.JoinChat, event.RoomPayload{ChatID: "chat42"}))

	// When the client announces its disconnect
	tracker.HandleEvent(s, event.Event{Kind: event.Disconnect})

	// Then the session is closed and every membership is gone
	req.Equal(domain.StateClosed, s.State())
	req.Empty(registry.Sessions)
	req.Empty(registry.RoomMembers)
}

func TestTracker_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockAuth := mocks.NewMockIAuthenticator(ctrl)
	tracker, registry := newTestTracker(t, mockAuth, mocks.NewMockIDispatcher(ctrl))

	sink := &captureSink{}
	s := activeSession(t, tracker, sink, domain.Identity{ID: "u1"}, mockAuth)

	tracker.Close(s)
	tracker.Close(s)

	req.Equal(domain.StateClosed, s.State())
	req.Empty(registry.Sessions)
}

func TestTracker_Invalid_Payload_Is_Answered_With_SocketError(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockAuth := mocks.NewMockIAuthenticator(ctrl)
	tracker, registry := newTestTracker(t, mockAuth, mocks.NewMockIDispatcher(ctrl))

	sink := &captureSink{}
	s := activeSession(t, tracker, sink, domain.Identity{ID: "u1"}, mockAuth)

	// When the join payload is missing its chat id
	tracker.HandleEvent(s, event.MustNew(event.JoinChat, event.RoomPayload{}))

	// Then the offender is told and nothing was joined
	req.Equal([]event.Kind{event.Connected, event.SocketError}, sink.kinds())
	req.Len(registry.RoomMembers, 1) // identity room only
	req.Equal(domain.StateActive, s.State())
}

func TestTracker_Handler_Panic_Is_Contained(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockAuth := mocks.NewMockIAuthenticator(ctrl)
	mockDispatcher := mocks.NewMockIDispatcher(ctrl)
	tracker, _ := newTestTracker(t, mockAuth, mockDispatcher)

	sink := &captureSink{}
	s := activeSession(t, tracker, sink, domain.Identity{ID: "u1"}, mockAuth)

	// Given a downstream collaborator that panics mid-handler
	mockDispatcher.EXPECT().
		BroadcastExcept(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Do(func(_ domain.RoomID, _ domain.ConnID, _ event.Kind, _ any) {
			panic("boom")
		}).Times(1)

	// When the event is handled, the process survives
	req.NotPanics(func() {
		tracker.HandleEvent(s, event.MustNew(event.TypingStart, event.RoomPayload{ChatID: "chat42"}))
	})

	// Then only the originating connection was told
	req.Equal([]event.Kind{event.Connected, event.SocketError}, sink.kinds())
}

func TestTracker_Events_Before_Active_Are_Ignored(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockAuth := mocks.NewMockIAuthenticator(ctrl)
	tracker, registry := newTestTracker(t, mockAuth, mocks.NewMockIDispatcher(ctrl))

	sink := &captureSink{}
	s := tracker.Begin(sink)

	// When an event arrives before authentication
	var raw json.RawMessage = []byte(`{"chatId":"chat42"}`)
	tracker.HandleEvent(s, event.Event{Kind: event.JoinChat, Data: raw})

	// Then nothing happened
	req.Empty(registry.RoomMembers)
	req.Empty(sink.kinds())
}
