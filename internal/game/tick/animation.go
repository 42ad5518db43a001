package tick

import (
	"context"

	"go.uber.org/zap"

	"github.com/hollowvale/mud/internal/game/event"
)

// AnimationState is the persisted slice of the animation system: the cyclic
// routine cursor and the one-shot flags still awaiting consumption. Persisting
// it lets a restarted server resume the rotation where it left off.
type AnimationState struct {
	RoutineIndex int
	PendingFlags []string
}

// StateStore persists tick-system state between runs. Implemented by the
// postgres tick-state repository; tests use an in-memory stand-in.
type StateStore interface {
	LoadAnimationState(ctx context.Context) (AnimationState, error)
	SaveAnimationState(ctx context.Context, st AnimationState) error
}

// Routine is one named entry of the animation rotation. Run appends whatever
// events the routine produces.
type Routine struct {
	Name string
	Run  func(events *event.List)
}

// FlagNotice describes the event emitted when a named one-shot flag is
// consumed: a message (catalog id or literal) delivered to a target room.
type FlagNotice struct {
	MessageID string
	Text      string
	RoomID    string
}

// AnimationSystem advances a fixed ordered routine list one entry per tick,
// wrapping at the end, and consumes one-shot global flags set by gameplay:
// a flag set during play is cleared on the next tick, producing its notice
// event. Not safe for concurrent use; it runs on the scheduler loop.
type AnimationSystem struct {
	routines []Routine
	notices  map[string]FlagNotice
	index    int
	pending  []string
	store    StateStore
	logger   *zap.Logger
}

// NewAnimationSystem creates an AnimationSystem. store may be nil, in which
// case state is not persisted across restarts.
//
// Precondition: routines must be non-empty.
func NewAnimationSystem(routines []Routine, notices map[string]FlagNotice, store StateStore, logger *zap.Logger) *AnimationSystem {
	return &AnimationSystem{
		routines: routines,
		notices:  notices,
		store:    store,
		logger:   logger,
	}
}

// Resume restores the persisted rotation cursor and pending flags. Flags
// whose notice no longer exists (removed from the catalog between runs) are
// dropped, same as SetFlag ignores them.
//
// Postcondition: an out-of-range persisted index is wrapped into range.
func (s *AnimationSystem) Resume(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	st, err := s.store.LoadAnimationState(ctx)
	if err != nil {
		return err
	}
	s.index = st.RoutineIndex % len(s.routines)
	if s.index < 0 {
		s.index = 0
	}
	s.pending = s.pending[:0]
	for _, name := range st.PendingFlags {
		if _, ok := s.notices[name]; !ok {
			s.logger.Debug("dropping persisted flag with no notice", zap.String("flag", name))
			continue
		}
		s.pending = append(s.pending, name)
	}
	return nil
}

// SetFlag arms the named one-shot flag. It is consumed, and its notice
// emitted, on the next tick. Unknown names are ignored; arming an already
// armed flag is a no-op.
func (s *AnimationSystem) SetFlag(name string) {
	if _, ok := s.notices[name]; !ok {
		s.logger.Debug("ignoring unknown animation flag", zap.String("flag", name))
		return
	}
	for _, f := range s.pending {
		if f == name {
			return
		}
	}
	s.pending = append(s.pending, name)
}

// Tick runs exactly one routine, advancing the cursor with wraparound, then
// consumes every pending flag, emitting its notice. State is persisted after
// the tick; persistence failures are logged and do not disturb gameplay.
func (s *AnimationSystem) Tick(ctx context.Context) *event.List {
	events := &event.List{}

	routine := s.routines[s.index]
	s.index = (s.index + 1) % len(s.routines)
	if routine.Run != nil {
		routine.Run(events)
	}

	for _, name := range s.pending {
		notice := s.notices[name]
		events.Emit(event.Event{
			Scope:     event.ScopeRoom,
			Name:      "animation_flag",
			MessageID: notice.MessageID,
			Text:      notice.Text,
			RoomID:    notice.RoomID,
			Detail:    map[string]string{"flag": name},
		})
	}
	s.pending = s.pending[:0]

	if s.store != nil {
		st := AnimationState{RoutineIndex: s.index, PendingFlags: append([]string(nil), s.pending...)}
		if err := s.store.SaveAnimationState(ctx, st); err != nil {
			s.logger.Error("persisting animation state", zap.Error(err))
		}
	}
	return events
}
