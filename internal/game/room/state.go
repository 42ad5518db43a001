// Package room implements the room lifecycle: lazily created per-room runtime
// state, the registry that owns it, and the coordinator that drives entry,
// exit, command dispatch, and room-owned timers. A room is dormant while no
// State exists for it, active while it has occupants, and dormant again when
// the last occupant leaves.
package room

import (
	"github.com/hollowvale/mud/internal/scheduler"
)

// MaxObjects bounds the transient object list of one room. Additions beyond
// the cap are refused and routed to content-defined on_full branches.
const MaxObjects = 20

// State is the mutable runtime record of one active room. It exists only
// while the room has occupants; rule documents stay immutable and all
// per-session mutation lands here. State is owned by the coordinator's
// dispatch loop and must not be shared across goroutines.
type State struct {
	RoomID string
	// Occupants is the set of player ids currently in the room.
	Occupants map[string]struct{}
	// Flags holds the room-state counters, seeded from content defaults.
	Flags map[string]int
	// Objects is the transient object list, capped at MaxObjects.
	Objects []int
	// Timers maps timer names to their scheduler handles. All are cancelled
	// when the room goes dormant.
	Timers map[string]*scheduler.Handle
	// Entries counts how many times a player has entered since activation.
	Entries int
}

func newState(roomID string, flags map[string]int, objects []int) *State {
	f := make(map[string]int, len(flags))
	for k, v := range flags {
		f[k] = v
	}
	return &State{
		RoomID:    roomID,
		Occupants: make(map[string]struct{}),
		Flags:     f,
		Objects:   append([]int(nil), objects...),
		Timers:    make(map[string]*scheduler.Handle),
	}
}

// OccupantCount returns the number of players in the room.
func (s *State) OccupantCount() int {
	return len(s.Occupants)
}
