package ws

import (
	"chat-relay/domain/event"
	"chat-relay/runtime"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum inbound message size in bytes.
	maxMessageSize = 64 << 10
)

// client glues one websocket connection to the relay core: the read pump
// feeds inbound events to the lifecycle tracker, the write pump drains the
// connection's sink onto the wire.
type client struct {
	log     *slog.Logger
	conn    *websocket.Conn
	tracker *runtime.Tracker
	session *runtime.Session
	sink    *Sink
}

func newClient(log *slog.Logger, conn *websocket.Conn, tracker *runtime.Tracker,
	session *runtime.Session, sink *Sink) *client {
	return &client{log: log, conn: conn, tracker: tracker, session: session, sink: sink}
}

// readPump is the only reader of the connection. Transport-level closure
// and the DISCONNECT event both end here, and teardown is one atomic
// registry operation either way.
func (c *client) readPump() {
	defer func() {
		c.tracker.Close(c.session)
		c.sink.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Unexpected close", "conn_id", string(c.session.ID), "error", err)
			}
			return
		}

		var evt event.Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.log.Debug("Dropping malformed frame", "conn_id", string(c.session.ID), "error", err)
			continue
		}

		c.tracker.HandleEvent(c.session, evt)
		if evt.Kind == event.Disconnect {
			return
		}
	}
}

// writePump is the only writer of the connection. It flushes the sink,
// keeps the peer alive with pings, and sends the close frame once the sink
// is done.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.sink.Events():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(evt); err != nil {
				c.log.Debug("Write failed", "conn_id", string(c.session.ID), "error", err)
				return
			}
		case <-c.sink.Done():
			c.flush()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush drains whatever was queued before Close, so a handshake rejection
// still reaches the peer before the close frame does.
func (c *client) flush() {
	for {
		select {
		case evt := <-c.sink.Events():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		default:
			return
		}
	}
}
