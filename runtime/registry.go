package runtime

import (
	"sync"

	"room-sync/contract"
	"room-sync/domain"
)

type Set map[string]struct{}

type Registry struct {
	mu          sync.RWMutex
	Observers   map[string]contract.StateSink // map observer -> Sink
	RoomMembers map[domain.RoomID]Set         // map room to observers
}

func NewRegistry() *Registry {
	return &Registry{
		Observers:   make(map[string]contract.StateSink),
		RoomMembers: make(map[domain.RoomID]Set),
	}
}

// GetSinksForRoom resolves the observers of a room into their sinks.
// An observer watching several rooms keeps a single sink.
// Returns nil if nobody watches the room.
func (r *Registry) GetSinksForRoom(roomID domain.RoomID) []contract.StateSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.RoomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.StateSink
	for observerID := range members {
		if sink, exists := r.Observers[observerID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers an observer sink and attaches it to a room.
// The room entry is created on the fly.
func (r *Registry) Subscribe(observerID string, roomID domain.RoomID, sink contract.StateSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Observers[observerID] = sink

	if _, ok := r.RoomMembers[roomID]; !ok {
		r.RoomMembers[roomID] = make(Set)
	}
	r.RoomMembers[roomID][observerID] = struct{}{}
}

// Unsubscribe detaches an observer from a room. The sink is dropped once the observer
// watches no room, and empty rooms are removed.
func (r *Registry) Unsubscribe(observerID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.RoomMembers[roomID]; ok {
		delete(members, observerID)
		if len(members) == 0 {
			delete(r.RoomMembers, roomID)
		}
	}
	for _, members := range r.RoomMembers {
		if _, ok := members[observerID]; ok {
			return
		}
	}
	delete(r.Observers, observerID)
}

// DropRoom detaches every observer of a room.
func (r *Registry) DropRoom(roomID domain.RoomID) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.RoomMembers[roomID]))
	for id := range r.RoomMembers[roomID] {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Unsubscribe(id, roomID)
	}
}
