// Package ws exposes the relay core over websocket connections. The
// handshake consumes two credential sources (cookie and explicit token
// field); framing beyond that stays inside this package.
package ws

import (
	"chat-relay/contract"
	"chat-relay/runtime"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// CookieName is the cookie-carried credential source, preferred over the
// explicit token query field when both are present.
const CookieName = "chat_token"

// TokenField is the fallback credential source on the upgrade URL.
const TokenField = "token"

type Server struct {
	log        *slog.Logger
	tracker    *runtime.Tracker
	upgrader   websocket.Upgrader
	sendBuffer int
}

func NewServer(log *slog.Logger, tracker *runtime.Tracker, sendBuffer int) *Server {
	return &Server{
		log:     log,
		tracker: tracker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sendBuffer: sendBuffer,
	}
}

// HandleWS upgrades the request and drives the connection's handshake.
// An unauthenticated connection receives SOCKET_ERROR and the close frame;
// it never gets a read loop and never appears in any room.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	creds := credentialsFrom(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sink := NewSink(s.sendBuffer)
	session := s.tracker.Begin(sink)
	c := newClient(s.log, conn, s.tracker, session, sink)

	// The write pump starts first so a handshake rejection can be flushed.
	go c.writePump()

	if err := s.tracker.Authenticate(r.Context(), session, creds); err != nil {
		sink.Close()
		return
	}

	go c.readPump()
}

// credentialsFrom extracts the two handshake credential sources. The
// cookie-carried token wins; the query field is the fallback for clients
// that cannot set cookies.
func credentialsFrom(r *http.Request) contract.Credentials {
	creds := contract.Credentials{
		AuthToken: r.URL.Query().Get(TokenField),
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		creds.CookieToken = cookie.Value
	}
	return creds
}
