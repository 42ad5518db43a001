package tick_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hollowvale/mud/internal/game/tick"
	"github.com/hollowvale/mud/internal/scheduler"
)

func TestAdapter_Duration(t *testing.T) {
	a := tick.NewAdapter(scheduler.New(zap.NewNop()), 250*time.Millisecond, zap.NewNop())
	assert.Equal(t, time.Second, a.Duration(4))
	assert.Equal(t, time.Duration(0), a.Duration(0))
}

func TestAdapter_RegisterJobFires(t *testing.T) {
	sched := scheduler.New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	defer sched.Stop()

	a := tick.NewAdapter(sched, 10*time.Millisecond, zap.NewNop())
	var fires atomic.Int32
	require.NoError(t, a.RegisterJob("pulse", 2, func() { fires.Add(1) }))

	assert.Eventually(t, func() bool { return fires.Load() >= 3 },
		2*time.Second, 5*time.Millisecond)
}

func TestAdapter_RejectsDuplicateAndBadInterval(t *testing.T) {
	a := tick.NewAdapter(scheduler.New(zap.NewNop()), time.Second, zap.NewNop())

	require.NoError(t, a.RegisterJob("pulse", 1, func() {}))
	assert.Error(t, a.RegisterJob("pulse", 1, func() {}))
	assert.Error(t, a.RegisterJob("bad", 0, func() {}))
	assert.ElementsMatch(t, []string{"pulse"}, a.Jobs())
}

func TestAdapter_StopCancelsAllJobs(t *testing.T) {
	sched := scheduler.New(zap.NewNop())
	a := tick.NewAdapter(sched, time.Second, zap.NewNop())
	require.NoError(t, a.RegisterJob("one", 1, func() {}))
	require.NoError(t, a.RegisterJob("two", 2, func() {}))

	a.Stop()
	assert.Empty(t, a.Jobs())
	a.Stop()
}
