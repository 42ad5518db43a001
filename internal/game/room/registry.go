package room

import (
	"sync"

	"github.com/hollowvale/mud/internal/content"
	"github.com/hollowvale/mud/internal/game/rules"
)

// Registry owns the active room states, creating them on first use and
// dropping them when rooms go dormant. It implements rules.RoomAccess so the
// action executor reads and writes room state through it; dormant rooms
// answer state queries from their document defaults without materializing.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*State
	defs     *rules.Set
	defaults content.RoomDefaults
}

// NewRegistry creates a Registry backed by the given rule-document set.
// defaults may be nil when no content-store seed data exists.
func NewRegistry(defs *rules.Set, defaults content.RoomDefaults) *Registry {
	return &Registry{
		rooms:    make(map[string]*State),
		defs:     defs,
		defaults: defaults,
	}
}

// Get returns the live state for roomID, if the room is active.
func (r *Registry) Get(roomID string) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[roomID]
	return st, ok
}

// GetOrCreate returns the live state for roomID, activating the room if it
// was dormant. New state is seeded from the content store's room defaults,
// overlaid with the rule document's state map.
func (r *Registry) GetOrCreate(roomID string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(roomID)
}

func (r *Registry) getOrCreateLocked(roomID string) *State {
	if st, ok := r.rooms[roomID]; ok {
		return st
	}

	flags := make(map[string]int)
	var objects []int
	if r.defaults != nil {
		for k, v := range r.defaults.DefaultState(roomID) {
			flags[k] = v
		}
		objects = r.defaults.DefaultObjects(roomID)
	}
	if def, ok := r.defs.Room(roomID); ok {
		for k, v := range def.State {
			flags[k] = v
		}
	}

	st := newState(roomID, flags, objects)
	r.rooms[roomID] = st
	return st
}

// Remove drops the state for roomID if the room has no occupants.
// Returns true when the room was removed (or was already dormant).
func (r *Registry) Remove(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[roomID]
	if !ok {
		return true
	}
	if len(st.Occupants) > 0 {
		return false
	}
	delete(r.rooms, roomID)
	return true
}

// ActiveCount returns the number of active rooms.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// StateValue returns the counter for key in roomID. Active rooms answer from
// live state; dormant rooms answer from their document defaults.
func (r *Registry) StateValue(roomID, key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.rooms[roomID]; ok {
		if v, ok := st.Flags[key]; ok {
			return v
		}
	}
	if def, ok := r.defs.Room(roomID); ok {
		return def.DefaultState(key)
	}
	return 0
}

// AddState adds delta to the named counter, activating the room and seeding
// the counter from its default on first touch.
func (r *Registry) AddState(roomID, key string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.getOrCreateLocked(roomID)
	if _, ok := st.Flags[key]; !ok {
		if def, ok := r.defs.Room(roomID); ok {
			st.Flags[key] = def.DefaultState(key)
		}
	}
	st.Flags[key] += delta
}

// ObjectCount returns the number of transient objects in roomID.
func (r *Registry) ObjectCount(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.rooms[roomID]; ok {
		return len(st.Objects)
	}
	if r.defaults != nil {
		return len(r.defaults.DefaultObjects(roomID))
	}
	return 0
}

// AddObject appends objectID to the room's transient list. Returns false when
// the room is already at MaxObjects.
func (r *Registry) AddObject(roomID string, objectID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.getOrCreateLocked(roomID)
	if len(st.Objects) >= MaxObjects {
		return false
	}
	st.Objects = append(st.Objects, objectID)
	return true
}
