package room

import (
	"time"

	"go.uber.org/zap"

	"github.com/hollowvale/mud/internal/game/event"
	"github.com/hollowvale/mud/internal/game/player"
	"github.com/hollowvale/mud/internal/game/rules"
	"github.com/hollowvale/mud/internal/scheduler"
)

// HookRunner runs room-attached script hooks. Hook failures are the
// implementation's problem; the coordinator fires and forgets.
type HookRunner interface {
	OnEnter(roomID, playerID string)
	OnExit(roomID, playerID string)
}

// Coordinator drives the room lifecycle: entry and exit, command dispatch
// through the trigger pipeline, hot rule reload, and room-owned timers.
// All methods are expected to run on the single dispatch loop; the registry
// guards its own maps but individual States have one owner at a time.
type Coordinator struct {
	defs     *rules.Set
	registry *Registry
	matcher  *rules.Matcher
	exec     *rules.Executor
	sched    *scheduler.Scheduler
	hooks    HookRunner
	logger   *zap.Logger
}

// NewCoordinator creates a Coordinator. hooks may be nil when no scripting
// backend is configured.
//
// Precondition: defs, registry, matcher, exec, sched, and logger must be non-nil.
func NewCoordinator(defs *rules.Set, registry *Registry, matcher *rules.Matcher, exec *rules.Executor, sched *scheduler.Scheduler, hooks HookRunner, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		defs:     defs,
		registry: registry,
		matcher:  matcher,
		exec:     exec,
		sched:    sched,
		hooks:    hooks,
		logger:   logger,
	}
}

// Enter activates roomID if dormant, adds p as an occupant, and announces the
// arrival to the room. The on-enter hook runs after the state change.
//
// Postcondition: p.Location == roomID and the room is active.
func (c *Coordinator) Enter(p *player.Player, roomID string) *event.List {
	st := c.registry.GetOrCreate(roomID)
	st.Occupants[p.ID] = struct{}{}
	st.Entries++
	if p.Location != roomID {
		p.MoveTo(roomID)
	}

	events := &event.List{}
	events.Emit(event.Event{
		Scope:         event.ScopeBroadcast,
		Name:          "player_enter",
		Player:        p.ID,
		ExcludePlayer: p.ID,
		RoomID:        roomID,
		Detail:        map[string]string{"player_name": p.Name},
	})

	if c.hooks != nil {
		c.hooks.OnEnter(roomID, p.ID)
	}
	return events
}

// Exit removes p from roomID. When the last occupant leaves, every timer the
// room owns is cancelled, the handle map is cleared, a room_empty event is
// emitted, and the state is dropped. Exiting a dormant room is a no-op.
func (c *Coordinator) Exit(p *player.Player, roomID string) *event.List {
	events := &event.List{}
	st, ok := c.registry.Get(roomID)
	if !ok {
		return events
	}

	delete(st.Occupants, p.ID)
	if c.hooks != nil {
		c.hooks.OnExit(roomID, p.ID)
	}

	if len(st.Occupants) == 0 {
		for name, h := range st.Timers {
			c.sched.Cancel(h)
			delete(st.Timers, name)
		}
		events.Emit(event.Event{
			Scope:  event.ScopeSystem,
			Name:   "room_empty",
			RoomID: roomID,
		})
		c.registry.Remove(roomID)
		c.logger.Debug("room went dormant", zap.String("room", roomID))
	}
	return events
}

// HandleCommand dispatches verb+args against roomID's triggers. The second
// return is false when no trigger claimed the command, in which case the
// caller falls through to generic command handling.
func (c *Coordinator) HandleCommand(p *player.Player, roomID, verb string, args []string) (*event.List, bool) {
	def, ok := c.defs.Room(roomID)
	if !ok {
		return nil, false
	}

	var live map[string]int
	if st, found := c.registry.Get(roomID); found {
		live = st.Flags
	}

	trg, ok := c.matcher.FirstMatch(def, verb, args, p, live)
	if !ok {
		return nil, false
	}

	// The scratch context starts with the actor's name so message templates
	// can reference it; everything else is action-written.
	ctx := rules.Context{"player_name": p.Name}

	events := &event.List{}
	c.exec.Execute(trg.Actions, p, rules.StripArgs(args, trg.ArgStrip), ctx, events, roomID)
	return events, true
}

// Reload atomically swaps the active rule-document set. Existing room states
// and in-flight timers are untouched; dispatches already holding the old
// snapshot finish against it.
func (c *Coordinator) Reload(defs map[string]*rules.RoomDefinition) {
	c.defs.Replace(defs)
	c.logger.Info("room rules reloaded", zap.Int("rooms", len(defs)))
}

// ScheduleRoomTimer registers a named timer owned by roomID, activating the
// room if dormant. A zero interval schedules a one-shot; re-using a name
// cancels the timer it replaces. All of a room's timers are cancelled when it
// goes dormant.
func (c *Coordinator) ScheduleRoomTimer(roomID, name string, delay, interval time.Duration, fn func()) *scheduler.Handle {
	st := c.registry.GetOrCreate(roomID)
	if old, ok := st.Timers[name]; ok {
		c.sched.Cancel(old)
	}

	var h *scheduler.Handle
	if interval > 0 {
		h = c.sched.Repeat(delay, interval, fn)
	} else {
		h = c.sched.Schedule(delay, fn)
	}
	st.Timers[name] = h
	return h
}
