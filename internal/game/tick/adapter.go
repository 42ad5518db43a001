// Package tick bridges the world's tick-based systems onto the scheduler.
// Gameplay cadence is expressed in ticks; the adapter converts tick counts to
// wall-clock durations and owns the recurring jobs it registers.
package tick

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hollowvale/mud/internal/scheduler"
)

// Adapter registers named recurring jobs measured in ticks and tracks their
// scheduler handles so Stop can cancel them all.
type Adapter struct {
	sched  *scheduler.Scheduler
	tick   time.Duration
	logger *zap.Logger

	mu   sync.Mutex
	jobs map[string]*scheduler.Handle
}

// NewAdapter creates an Adapter.
//
// Precondition: tick must be positive.
func NewAdapter(sched *scheduler.Scheduler, tick time.Duration, logger *zap.Logger) *Adapter {
	return &Adapter{
		sched:  sched,
		tick:   tick,
		logger: logger,
		jobs:   make(map[string]*scheduler.Handle),
	}
}

// Duration converts a tick count to a wall-clock duration.
func (a *Adapter) Duration(ticks int) time.Duration {
	return time.Duration(ticks) * a.tick
}

// RegisterJob schedules fn to run every everyTicks ticks under name.
//
// Precondition: everyTicks must be positive.
// Postcondition: Returns an error for a duplicate name; the existing job is
// untouched.
func (a *Adapter) RegisterJob(name string, everyTicks int, fn func()) error {
	if everyTicks <= 0 {
		return fmt.Errorf("job %s: tick interval must be positive, got %d", name, everyTicks)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	interval := a.Duration(everyTicks)
	a.jobs[name] = a.sched.Repeat(interval, interval, fn)
	a.logger.Info("tick job registered",
		zap.String("job", name),
		zap.Int("every_ticks", everyTicks),
		zap.Duration("interval", interval),
	)
	return nil
}

// Stop cancels every registered job. Safe to call more than once.
func (a *Adapter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for name, h := range a.jobs {
		a.sched.Cancel(h)
		delete(a.jobs, name)
	}
}

// Jobs returns the names of the registered jobs.
func (a *Adapter) Jobs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.jobs))
	for name := range a.jobs {
		names = append(names, name)
	}
	return names
}
