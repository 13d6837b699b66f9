package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"sync"
)

type Set map[domain.ConnID]struct{}

// Registry is the single source of truth for room membership. It tracks
// which connection handles currently belong to which rooms, and which sink
// serves each connection. All mutation goes through Join/Leave/Drop under
// one lock, so no reader ever observes a half-applied change.
type Registry struct {
	mu          sync.RWMutex
	Sessions    map[domain.ConnID]contract.EventSink // connection handle -> outbound half
	RoomMembers map[domain.RoomID]Set                // room -> member handles
	joined      map[domain.ConnID]map[domain.RoomID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:    make(map[domain.ConnID]contract.EventSink),
		RoomMembers: make(map[domain.RoomID]Set),
		joined:      make(map[domain.ConnID]map[domain.RoomID]struct{}),
	}
}

// Register binds a connection handle to its sink. Until a connection is
// registered, joins are ignored: an unauthenticated connection can never
// appear in any room.
func (r *Registry) Register(connID domain.ConnID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sessions[connID] = sink
}

// Join adds the connection to a room, creating the member set on first use.
// Joining a room already joined is a no-op.
func (r *Registry) Join(roomID domain.RoomID, connID domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.Sessions[connID]; !ok {
		return
	}

	if _, ok := r.RoomMembers[roomID]; !ok {
		r.RoomMembers[roomID] = make(Set)
	}
	r.RoomMembers[roomID][connID] = struct{}{}

	if _, ok := r.joined[connID]; !ok {
		r.joined[connID] = make(map[domain.RoomID]struct{})
	}
	r.joined[connID][roomID] = struct{}{}
}

// Leave removes the connection from a room. The last member leaving prunes
// the room entry entirely, so abandoned rooms cost nothing.
func (r *Registry) Leave(roomID domain.RoomID, connID domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(roomID, connID)
}

func (r *Registry) leaveLocked(roomID domain.RoomID, connID domain.ConnID) {
	if members, ok := r.RoomMembers[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.RoomMembers, roomID)
		}
	}
	if rooms, ok := r.joined[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.joined, connID)
		}
	}
}

// MembersOf returns a snapshot of the room's members for one delivery
// round. Connections joining after the snapshot do not receive it.
func (r *Registry) MembersOf(roomID domain.RoomID) []contract.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.RoomMembers[roomID]
	if !ok {
		return nil
	}
	snapshot := make([]contract.Member, 0, len(members))
	for connID := range members {
		if sink, exists := r.Sessions[connID]; exists {
			snapshot = append(snapshot, contract.Member{Conn: connID, Sink: sink})
		}
	}
	return snapshot
}

// Drop removes a connection from every room it joined and forgets its sink,
// all inside one critical section. A concurrent MembersOf sees the
// connection either everywhere it was, or nowhere.
func (r *Registry) Drop(connID domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.joined[connID] {
		r.leaveLocked(roomID, connID)
	}
	delete(r.joined, connID)
	delete(r.Sessions, connID)
}

// Counts reports live gauge values for telemetry.
func (r *Registry) Counts() (connections, rooms int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Sessions), len(r.RoomMembers)
}
