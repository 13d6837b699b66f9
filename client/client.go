// Package client is the reference consumer of the relay wire format, used
// by the tester binary and the integration tests.
package client

import (
	"chat-relay/domain/event"
	"chat-relay/transport/ws"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/websocket"
)

type Options struct {
	// URL of the relay's websocket endpoint, e.g. ws://localhost:8080/ws.
	URL   string
	Token string
	// UseCookie carries the token in the handshake cookie instead of the
	// query field, matching browser clients.
	UseCookie bool
}

// Client is one authenticated relay connection. Server-originated events
// arrive on Events until the connection dies, at which point the channel
// is closed.
type Client struct {
	log     *slog.Logger
	conn    *websocket.Conn
	writeMu sync.Mutex
	Events  chan event.Event
}

// Dial connects and presents the bearer credential. The server answers
// with CONNECTED on success and SOCKET_ERROR plus a close frame otherwise;
// both arrive on Events.
func Dial(ctx context.Context, log *slog.Logger, opts Options) (*Client, error) {
	target := opts.URL
	header := http.Header{}
	if opts.UseCookie {
		header.Set("Cookie", fmt.Sprintf("%s=%s", ws.CookieName, opts.Token))
	} else {
		target = fmt.Sprintf("%s?%s=%s", target, ws.TokenField, url.QueryEscape(opts.Token))
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opts.URL, err)
	}

	c := &Client{
		log:    log,
		conn:   conn,
		Events: make(chan event.Event, 64),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.Events)
	for {
		var evt event.Event
		if err := c.conn.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Connection lost", "error", err)
			}
			return
		}
		c.Events <- evt
	}
}

// Send pushes one client-originated event.
func (c *Client) Send(kind event.Kind, payload any) error {
	evt, err := event.New(kind, payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(evt)
}

// JoinChat subscribes this connection to a conversation's room.
func (c *Client) JoinChat(chatID string) error {
	return c.Send(event.JoinChat, event.RoomPayload{ChatID: chatID})
}

// Typing toggles the transient typing indicator for a conversation.
func (c *Client) Typing(chatID string, active bool) error {
	kind := event.TypingStop
	if active {
		kind = event.TypingStart
	}
	return c.Send(kind, event.RoomPayload{ChatID: chatID})
}

// Close announces the disconnect and drops the transport.
func (c *Client) Close() error {
	_ = c.Send(event.Disconnect, nil)
	return c.conn.Close()
}

// DescribeAttachment sniffs a local file's content type so attachment
// payloads can be labeled before the file store ever sees them.
func DescribeAttachment(path string) (map[string]string, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect %s: %w", path, err)
	}
	return map[string]string{
		"path":        path,
		"contentType": mime.String(),
		"extension":   mime.Extension(),
	}, nil
}
