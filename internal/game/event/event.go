// Package event defines the outbound event shape produced by the room engine.
// Events are collected during trigger execution and handed to the transport
// layer for delivery; the engine never delivers them itself.
package event

import "github.com/google/uuid"

// Scope identifies the delivery audience for an event.
type Scope string

const (
	// ScopeDirect delivers to the acting player only.
	ScopeDirect Scope = "direct"
	// ScopeTarget delivers to a specific non-acting player.
	ScopeTarget Scope = "target"
	// ScopeBroadcast delivers to every occupant of the room except ExcludePlayer.
	ScopeBroadcast Scope = "broadcast"
	// ScopeRoom delivers to every occupant of the room.
	ScopeRoom Scope = "room"
	// ScopeNearbyRoom delivers to the occupants of an adjacent room.
	ScopeNearbyRoom Scope = "nearby_room"
	// ScopeSystem delivers to every connected player.
	ScopeSystem Scope = "system"
	// ScopePlayer delivers to a named player anywhere in the world.
	ScopePlayer Scope = "player"
)

// Event is one outbound notification. Exactly one of MessageID or Text is
// normally set; MessageID refers to a catalog template already rendered into
// Text by the executor when substitution arguments were available.
type Event struct {
	// ID uniquely identifies the event instance.
	ID uuid.UUID
	// Scope is the delivery audience.
	Scope Scope
	// Name is the event kind, e.g. "message", "player_enter", "room_transfer".
	Name string
	// MessageID is the catalog template id, when the content referenced one.
	MessageID string
	// Text is the resolved message text.
	Text string
	// Player is the id of the acting player.
	Player string
	// ExcludePlayer, when set, is omitted from broadcast delivery.
	ExcludePlayer string
	// RoomID is the room the event concerns.
	RoomID string
	// FromRoom and ToRoom carry room_transfer movement endpoints.
	FromRoom string
	ToRoom   string
	// Detail carries kind-specific extras (leave/arrive text, flag names).
	Detail map[string]string
}

// List is an ordered accumulator of events produced during one dispatch.
type List struct {
	events []Event
}

// Emit appends ev to the list, assigning an ID when absent.
func (l *List) Emit(ev Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	l.events = append(l.events, ev)
}

// Events returns the accumulated events in emission order.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (l *List) Events() []Event {
	if l.events == nil {
		return []Event{}
	}
	return l.events
}

// Len returns the number of accumulated events.
func (l *List) Len() int { return len(l.events) }

// Direct builds a direct-scope message event for player.
func Direct(player, roomID, text string) Event {
	return Event{Scope: ScopeDirect, Name: "message", Player: player, RoomID: roomID, Text: text}
}

// Broadcast builds a broadcast-scope message event for roomID excluding player.
func Broadcast(player, roomID, text string) Event {
	return Event{Scope: ScopeBroadcast, Name: "message", Player: player, ExcludePlayer: player, RoomID: roomID, Text: text}
}

// System builds a world-wide message event.
func System(text string) Event {
	return Event{Scope: ScopeSystem, Name: "message", Text: text}
}
