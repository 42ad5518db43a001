package tick_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hollowvale/mud/internal/game/event"
	"github.com/hollowvale/mud/internal/game/tick"
)

type memoryStore struct {
	anim    tick.AnimationState
	loadErr error
	saves   int
}

func (m *memoryStore) LoadAnimationState(context.Context) (tick.AnimationState, error) {
	return m.anim, m.loadErr
}

func (m *memoryStore) SaveAnimationState(_ context.Context, st tick.AnimationState) error {
	m.anim = st
	m.saves++
	return nil
}

func namedRoutines(order *[]string, names ...string) []tick.Routine {
	routines := make([]tick.Routine, len(names))
	for i, name := range names {
		name := name
		routines[i] = tick.Routine{Name: name, Run: func(*event.List) {
			*order = append(*order, name)
		}}
	}
	return routines
}

func TestAnimation_RotatesOneRoutinePerTick(t *testing.T) {
	var order []string
	s := tick.NewAnimationSystem(namedRoutines(&order, "rats", "bats", "fog"), nil, nil, zap.NewNop())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Tick(ctx)
	}
	assert.Equal(t, []string{"rats", "bats", "fog", "rats", "bats"}, order)
}

func TestAnimation_FlagConsumedOnNextTick(t *testing.T) {
	var order []string
	notices := map[string]tick.FlagNotice{
		"earthquake": {MessageID: "msg.quake", RoomID: "plaza"},
	}
	s := tick.NewAnimationSystem(namedRoutines(&order, "rats"), notices, nil, zap.NewNop())
	ctx := context.Background()

	events := s.Tick(ctx)
	assert.Equal(t, 0, events.Len(), "no flag armed yet")

	s.SetFlag("earthquake")
	s.SetFlag("earthquake") // arming twice is one consumption
	s.SetFlag("volcano")    // unknown, ignored

	events = s.Tick(ctx)
	require.Equal(t, 1, events.Len())
	ev := events.Events()[0]
	assert.Equal(t, event.ScopeRoom, ev.Scope)
	assert.Equal(t, "animation_flag", ev.Name)
	assert.Equal(t, "msg.quake", ev.MessageID)
	assert.Equal(t, "plaza", ev.RoomID)
	assert.Equal(t, "earthquake", ev.Detail["flag"])

	events = s.Tick(ctx)
	assert.Equal(t, 0, events.Len(), "flag cleared after consumption")
}

func TestAnimation_ResumeRestoresCursor(t *testing.T) {
	store := &memoryStore{anim: tick.AnimationState{RoutineIndex: 2}}
	var order []string
	s := tick.NewAnimationSystem(namedRoutines(&order, "rats", "bats", "fog"), nil, store, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, s.Resume(ctx))
	s.Tick(ctx)
	s.Tick(ctx)
	assert.Equal(t, []string{"fog", "rats"}, order)
	assert.Equal(t, 2, store.saves)
	assert.Equal(t, 1, store.anim.RoutineIndex)
}

func TestAnimation_ResumeWrapsStaleIndex(t *testing.T) {
	store := &memoryStore{anim: tick.AnimationState{RoutineIndex: 7}}
	var order []string
	s := tick.NewAnimationSystem(namedRoutines(&order, "rats", "bats", "fog"), nil, store, zap.NewNop())

	require.NoError(t, s.Resume(context.Background()))
	s.Tick(context.Background())
	assert.Equal(t, []string{"bats"}, order)
}

func TestAnimation_ResumeRestoresPendingFlags(t *testing.T) {
	store := &memoryStore{anim: tick.AnimationState{PendingFlags: []string{"earthquake"}}}
	notices := map[string]tick.FlagNotice{"earthquake": {Text: "The ground shakes.", RoomID: "plaza"}}
	var order []string
	s := tick.NewAnimationSystem(namedRoutines(&order, "rats"), notices, store, zap.NewNop())

	require.NoError(t, s.Resume(context.Background()))
	events := s.Tick(context.Background())
	require.Equal(t, 1, events.Len())
	assert.Equal(t, "The ground shakes.", events.Events()[0].Text)
}

func TestAnimation_ResumeDropsFlagsWithoutNotices(t *testing.T) {
	// The "eclipse" notice was removed from the catalog since the state was
	// persisted; restoring it would emit an empty-bodied event.
	store := &memoryStore{anim: tick.AnimationState{PendingFlags: []string{"eclipse", "earthquake"}}}
	notices := map[string]tick.FlagNotice{"earthquake": {Text: "The ground shakes.", RoomID: "plaza"}}
	var order []string
	s := tick.NewAnimationSystem(namedRoutines(&order, "rats"), notices, store, zap.NewNop())

	require.NoError(t, s.Resume(context.Background()))
	events := s.Tick(context.Background())
	require.Equal(t, 1, events.Len())
	assert.Equal(t, "earthquake", events.Events()[0].Detail["flag"])
}
