// Package scheduler provides a single-loop, priority-ordered timer service.
// It owns no domain knowledge; callers register callbacks against delays or
// repeat intervals and receive opaque handles for cancellation.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// task is a single scheduled callback. Owned exclusively by the Scheduler;
// external code only ever sees the Handle.
//
// Invariant: seq is unique per scheduler and breaks run-at ties deterministically.
type task struct {
	runAt     time.Time
	seq       uint64
	fn        func()
	interval  time.Duration // 0 = one-shot
	cancelled atomic.Bool
}

// Handle is the opaque reference returned by Schedule and Repeat.
// It is safe for concurrent use.
type Handle struct {
	// ID uniquely identifies the scheduled task for logging and bookkeeping.
	ID uuid.UUID
	t  *task
}

// Cancelled reports whether the underlying task has been cancelled.
func (h *Handle) Cancelled() bool {
	return h.t.cancelled.Load()
}

// taskHeap orders tasks by (runAt, seq).
type taskHeap []*task

func (th taskHeap) Len() int { return len(th) }

func (th taskHeap) Less(i, j int) bool {
	if th[i].runAt.Equal(th[j].runAt) {
		return th[i].seq < th[j].seq
	}
	return th[i].runAt.Before(th[j].runAt)
}

func (th taskHeap) Swap(i, j int) { th[i], th[j] = th[j], th[i] }

func (th *taskHeap) Push(x any) { *th = append(*th, x.(*task)) }

func (th *taskHeap) Pop() any {
	old := *th
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*th = old[:n-1]
	return t
}

// Scheduler manages one min-heap of tasks serviced by a single loop goroutine.
// All methods are safe for concurrent use.
//
// Invariant: cancellation is lazy; cancelled entries stay in the heap until
// popped, where the loop discards them.
type Scheduler struct {
	mu     sync.Mutex
	heap   taskHeap
	seq    uint64
	wake   chan struct{}
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

// New creates a stopped Scheduler ready for Start.
//
// Precondition: logger must be non-nil.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Schedule registers a one-shot callback to run after delay.
//
// Precondition: fn must not be nil; delay may be zero for immediate dispatch.
// Postcondition: Returns a non-nil Handle usable with Cancel.
func (s *Scheduler) Schedule(delay time.Duration, fn func()) *Handle {
	return s.add(delay, 0, fn)
}

// Repeat registers a recurring callback: first firing after delay, then every
// interval measured from the completion of the previous firing. A slow
// callback therefore delays subsequent firings rather than bunching them.
//
// Precondition: fn must not be nil; interval must be > 0.
// Postcondition: Returns a non-nil Handle usable with Cancel.
func (s *Scheduler) Repeat(delay, interval time.Duration, fn func()) *Handle {
	return s.add(delay, interval, fn)
}

func (s *Scheduler) add(delay, interval time.Duration, fn func()) *Handle {
	s.mu.Lock()
	s.seq++
	t := &task{
		runAt:    time.Now().Add(delay),
		seq:      s.seq,
		fn:       fn,
		interval: interval,
	}
	heap.Push(&s.heap, t)
	s.mu.Unlock()

	s.signal()
	return &Handle{ID: uuid.New(), t: t}
}

// Cancel marks the handle's task as cancelled. Safe to call more than once;
// cancelling an already-cancelled or already-fired task is a no-op.
//
// Postcondition: h.Cancelled() reports true.
func (s *Scheduler) Cancel(h *Handle) {
	if h == nil {
		return
	}
	h.t.cancelled.Store(true)
	s.signal()
}

// Start launches the scheduler loop. The loop runs until ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Stop terminates the loop. Idempotent.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.done) })
}

// Pending returns the number of entries currently in the heap, including
// cancelled entries not yet discarded. Intended for tests and diagnostics.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heap)
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// loop waits until the earliest task is due or a schedule/cancel signal
// arrives, then fires every due task in (runAt, seq) order.
func (s *Scheduler) loop(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		wait, ok := s.nextWait()
		if ok {
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			s.drainTimer(timer, ok)
			return
		case <-s.done:
			s.drainTimer(timer, ok)
			return
		case <-s.wake:
			s.drainTimer(timer, ok)
		case <-timer.C:
		}

		s.fireDue()
	}
}

// nextWait returns how long the loop should sleep before the earliest entry
// is due. ok is false when the heap is empty, in which case the loop blocks
// solely on wake/done.
func (s *Scheduler) nextWait() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heap) == 0 {
		return 0, false
	}
	wait := time.Until(s.heap[0].runAt)
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

func (s *Scheduler) drainTimer(timer *time.Timer, armed bool) {
	if armed && !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

// fireDue pops and runs every entry whose run-at has elapsed, discarding
// cancelled entries. Recurring tasks are re-enqueued at now + interval after
// the callback returns.
func (s *Scheduler) fireDue() {
	for {
		s.mu.Lock()
		if len(s.heap) == 0 || s.heap[0].runAt.After(time.Now()) {
			s.mu.Unlock()
			return
		}
		t := heap.Pop(&s.heap).(*task)
		s.mu.Unlock()

		if t.cancelled.Load() {
			continue
		}

		s.invoke(t)

		if t.interval > 0 && !t.cancelled.Load() {
			s.mu.Lock()
			s.seq++
			t.seq = s.seq
			t.runAt = time.Now().Add(t.interval)
			heap.Push(&s.heap, t)
			s.mu.Unlock()
		}
	}
}

// invoke runs the callback with panic recovery so one failing task never
// halts the loop or un-registers a recurring task.
func (s *Scheduler) invoke(t *task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler: task panicked",
				zap.Uint64("seq", t.seq),
				zap.Any("panic", r),
			)
		}
	}()
	t.fn()
}
