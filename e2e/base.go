package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"chat-relay/auth"
	"chat-relay/client"
	"chat-relay/domain/event"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/transport/ws"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

// BaseRelaySuite drives a relay over its real websocket surface using the
// client package. With RELAY_ADDR unset it boots a full relay in-process
// (badger included) and seeds its own identities; pointed at an external
// relay it only mints tokens, so the target must share E2E_JWT_SECRET and
// already know the user IDs handed to DialAs.
type BaseRelaySuite struct {
	suite.Suite
	Config Config

	log     *slog.Logger
	wsURL   string
	server  *httptest.Server
	db      *badger.DB
	userIDs map[string]string
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	s.log = logs.GetLoggerFromLevel(slog.LevelDebug)
	s.userIDs = map[string]string{}

	if s.Config.RelayAddr != "" {
		s.wsURL = fmt.Sprintf("ws://%s/ws", s.Config.RelayAddr)
		return
	}
	s.startInProcessRelay()
}

func (s *BaseRelaySuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.db != nil {
		s.Require().NoError(s.db.Close())
	}
}

func (s *BaseRelaySuite) startInProcessRelay() {
	// Reduced to 16 Mo for testing (avoid 20 Go of storage)
	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	s.Require().NoError(err)
	s.db = db

	identityRepository := repositories.NewIdentityRepository(db)
	for _, username := range []string{"alice", "bob"} {
		id, err := identityRepository.CreateIdentity(username, "ComplexPass123!", "")
		s.Require().NoError(err)
		s.userIDs[username] = id
	}

	authenticator := auth.NewAuthenticator(s.log,
		auth.NewVerifier(s.Config.JWTSecret), identityRepository, time.Second)
	registry := runtime.NewRegistry()
	dispatcher := runtime.NewDispatcher(s.log, registry, time.Second)
	tracker := runtime.NewTracker(s.log, authenticator, registry, dispatcher, time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ws.NewServer(s.log, tracker, 16).HandleWS)
	s.server = httptest.NewServer(mux)
	s.wsURL = "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
}

// UserID maps a seeded username to its identity ID. Against an external
// relay the username is assumed to BE the ID.
func (s *BaseRelaySuite) UserID(username string) string {
	if id, ok := s.userIDs[username]; ok {
		return id
	}
	return username
}

// DialAs connects as the given user with a freshly minted token, printing
// a colorized header for the connection step in logs.
func (s *BaseRelaySuite) DialAs(username string) *client.Client {
	header := fmt.Sprintf("  ====== %s ======", username)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	token, err := auth.GenerateToken(s.UserID(username), s.Config.JWTSecret, time.Hour)
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := client.Dial(ctx, s.log, client.Options{
		URL:       s.wsURL,
		Token:     token,
		UseCookie: s.Config.UseCookie,
	})
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = c.Close() })
	return c
}

// WaitFor blocks until the client receives an event of the wanted kind,
// skipping anything else in between.
func (s *BaseRelaySuite) WaitFor(c *client.Client, kind event.Kind) event.Event {
	deadline := time.After(3 * time.Second)
	for {
		select {
		case evt, ok := <-c.Events:
			s.Require().True(ok, "connection closed while waiting for %s", kind)
			if evt.Kind == kind {
				return evt
			}
		case <-deadline:
			s.Require().Failf("timeout", "no %s event arrived", kind)
			return event.Event{}
		}
	}
}

// ExpectSilence asserts no event at all arrives within the window.
func (s *BaseRelaySuite) ExpectSilence(c *client.Client, window time.Duration) {
	select {
	case evt, ok := <-c.Events:
		if ok {
			s.Require().Failf("unexpected event", "received %s", evt.Kind)
		}
	case <-time.After(window):
	}
}
