package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// Dispatcher fans an event out to every connection a room lists at call
// time. Delivery is best-effort and at-most-once: each member gets one
// bounded attempt, failures are logged and never abort the other members,
// and nothing is reported back to the write-path caller.
//
// Deliveries run synchronously inside the call, so a caller issuing two
// broadcasts in sequence knows every connection sees them in that order.
// One slow sink costs the round at most sinkTimeout.
type Dispatcher struct {
	log         *slog.Logger
	registry    contract.IRegistry
	sinkTimeout time.Duration
}

func NewDispatcher(log *slog.Logger, registry contract.IRegistry, sinkTimeout time.Duration) *Dispatcher {
	return &Dispatcher{log: log, registry: registry, sinkTimeout: sinkTimeout}
}

// Broadcast delivers to every member of the room.
func (d *Dispatcher) Broadcast(roomID domain.RoomID, kind event.Kind, payload any) {
	d.deliver(roomID, nil, kind, payload)
}

// BroadcastExcept delivers to every member except the originating
// connection. Typing indicators use this so senders never see their own.
func (d *Dispatcher) BroadcastExcept(roomID domain.RoomID, exclude domain.ConnID, kind event.Kind, payload any) {
	d.deliver(roomID, &exclude, kind, payload)
}

// ToUser delivers to every live session of one user via their identity
// room, whether or not that user has joined any chat room.
func (d *Dispatcher) ToUser(userID string, kind event.Kind, payload any) {
	d.deliver(domain.UserRoom(userID), nil, kind, payload)
}

func (d *Dispatcher) deliver(roomID domain.RoomID, exclude *domain.ConnID, kind event.Kind, payload any) {
	evt, err := event.New(kind, payload)
	if err != nil {
		d.log.Error("Undeliverable payload", "room", roomID.String(), "kind", kind, "error", err)
		return
	}

	members := d.registry.MembersOf(roomID)
	if exclude != nil {
		members = lo.Filter(members, func(m contract.Member, _ int) bool {
			return m.Conn != *exclude
		})
	}

	for _, member := range members {
		ctx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
		if err := member.Sink.Consume(ctx, evt); err != nil {
			d.log.Warn("Delivery failed",
				"room", roomID.String(),
				"conn_id", string(member.Conn),
				"kind", kind,
				"error", err)
		}
		cancel()
	}
}
