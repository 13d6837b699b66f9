package ws

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"sync"
)

// Sink is the channel-backed outbound half of one websocket connection.
// The dispatcher and tracker push into it; the connection's write pump
// drains it onto the wire.
type Sink struct {
	events    chan event.Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewSink(bufferSize int) *Sink {
	return &Sink{
		events: make(chan event.Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume is called by fanout. It hands the event to the write pump, or
// gives up when the delivery context expires so one slow connection never
// stalls a broadcast. Consuming into a closed sink is a delivery failure,
// not a panic.
func (s *Sink) Consume(ctx context.Context, e event.Event) error {
	select {
	case <-s.done:
		return errors.ErrConnectionClosed
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream. Queued events are still flushed by the write pump
// before it sends the close frame.
func (s *Sink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Done signals the write pump that no further events will arrive.
func (s *Sink) Done() <-chan struct{} {
	return s.done
}

// Events exposes the queued stream to the write pump.
func (s *Sink) Events() <-chan event.Event {
	return s.events
}
