package rules

import "sync/atomic"

// Set is the active collection of rule documents, swappable atomically for
// hot content reload. Readers always see a complete, validated snapshot;
// in-flight dispatches finish against the snapshot they started with.
type Set struct {
	defs atomic.Pointer[map[string]*RoomDefinition]
}

// NewSet creates a Set holding defs.
//
// Precondition: defs must be fully validated; nil is treated as empty.
func NewSet(defs map[string]*RoomDefinition) *Set {
	if defs == nil {
		defs = make(map[string]*RoomDefinition)
	}
	s := &Set{}
	s.defs.Store(&defs)
	return s
}

// Room returns the definition for id from the current snapshot.
func (s *Set) Room(id string) (*RoomDefinition, bool) {
	d, ok := (*s.defs.Load())[id]
	return d, ok
}

// Replace atomically swaps the active document set. Existing room state and
// in-flight timers are untouched.
func (s *Set) Replace(defs map[string]*RoomDefinition) {
	if defs == nil {
		defs = make(map[string]*RoomDefinition)
	}
	s.defs.Store(&defs)
}

// Len returns the number of documents in the current snapshot.
func (s *Set) Len() int {
	return len(*s.defs.Load())
}
