package worldgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
)

// SchedulerConfig tunes a Scheduler. Zero fields take defaults.
type SchedulerConfig struct {
	Workers              int
	Timeout              time.Duration
	HousekeepingInterval time.Duration
	PerfLogInterval      time.Duration
	// ExceptionLimit failed tasks within ExceptionWindow of each other
	// disable further submissions.
	ExceptionLimit  int
	ExceptionWindow time.Duration
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.Workers <= 0 {
		c.Workers = max(1, runtime.NumCPU()-1)
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.HousekeepingInterval <= 0 {
		c.HousekeepingInterval = 250 * time.Millisecond
	}
	if c.ExceptionLimit <= 0 {
		c.ExceptionLimit = 20
	}
	if c.ExceptionWindow <= 0 {
		c.ExceptionWindow = time.Second
	}
	return c
}

// Scheduler runs generation tasks on a bounded worker pool and tracks them
// until they finish, time out or are cancelled.
type Scheduler struct {
	cfg  SchedulerConfig
	env  *Environment
	log  *slog.Logger
	pool pond.Pool
	perf *PerfCalculator

	ctx    context.Context
	cancel context.CancelFunc
	nextID atomic.Uint64

	mu      sync.Mutex
	tasks   []*Task
	stopped bool

	disabled       atomic.Bool
	exceptions     int
	lastException  time.Time
	lastPerfReport time.Time
}

// NewScheduler creates a scheduler running tasks through env.
func NewScheduler(cfg SchedulerConfig, env *Environment, log *slog.Logger) *Scheduler {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:            cfg,
		env:            env,
		log:            log.With("component", "worldgen"),
		pool:           pond.NewPool(cfg.Workers),
		perf:           NewPerfCalculator(),
		ctx:            ctx,
		cancel:         cancel,
		lastPerfReport: time.Now(),
	}
}

// Submit queues a batch of size×size chunks with lowest corner origin,
// generated up to target. Even sizes are grown by one. callback runs on a
// worker goroutine for every chunk that finished; it is never called after
// the task was cancelled.
func (s *Scheduler) Submit(origin ChunkPos, size int, target Stage, callback func(*Chunk)) (*Task, error) {
	if size < 1 {
		return nil, fmt.Errorf("submit batch at %s: size %d must be positive", origin, size)
	}
	if size%2 == 0 {
		size++
	}
	if s.disabled.Load() {
		return nil, ErrGenerationDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, ErrSchedulerStopped
	}
	return s.submitLocked(origin, size, target, callback), nil
}

// TrySubmit is Submit that refuses a batch overlapping or bordering an
// in-flight task.
func (s *Scheduler) TrySubmit(origin ChunkPos, size int, target Stage, callback func(*Chunk)) (*Task, error) {
	if size < 1 {
		return nil, fmt.Errorf("submit batch at %s: size %d must be positive", origin, size)
	}
	if size%2 == 0 {
		size++
	}
	if s.disabled.Load() {
		return nil, ErrGenerationDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, ErrSchedulerStopped
	}
	for _, t := range s.tasks {
		if !t.IsComplete() && t.OverlapsOrIsNear(origin.X, origin.Z, size) {
			return nil, ErrTooClose
		}
	}
	return s.submitLocked(origin, size, target, callback), nil
}

func (s *Scheduler) submitLocked(origin ChunkPos, size int, target Stage, callback func(*Chunk)) *Task {
	t := newTask(s.ctx, s.nextID.Add(1), origin, size, target, callback, s.log)
	s.tasks = append(s.tasks, t)
	s.pool.Submit(func() { s.execute(t) })
	s.log.Debug("generation task queued", "task", t.String())
	return t
}

// execute runs one task on a pool worker.
func (s *Scheduler) execute(t *Task) {
	if !t.start() {
		return
	}
	defer func() {
		if v := recover(); v != nil {
			pe := &PanicError{Value: v, Stack: string(debug.Stack())}
			s.log.Error("generation task panicked", "task", t.String(), "panic", fmt.Sprint(v), "stack", pe.Stack)
			t.finish(StatusFailed, pe)
		}
	}()

	ctx := WithGenerationWorker(t.ctx)
	err := s.env.generate(ctx, t, s.log)
	switch {
	case err == nil:
		s.perf.Record(t.timer)
		if t.finish(StatusCompleted, nil) {
			res := t.Result()
			s.log.Debug("generation task completed", "task", t.String(), "delivered", res.Delivered, "failed", res.Failed, "timer", t.timer.String())
		}
	case errors.Is(err, ErrCancelled):
		// Cancel already moved the task to a terminal state; a context that
		// ended for any other reason is reported the same way.
		t.finishCancelled()
	default:
		s.log.Error("generation task failed", "task", t.String(), "error", err)
		t.finish(StatusFailed, err)
	}
}

// Housekeep makes one pass over in-flight tasks. Finished tasks are dropped,
// failures feed the exception breaker and stalled tasks are cancelled.
func (s *Scheduler) Housekeep() {
	now := time.Now()

	s.mu.Lock()
	if s.exceptions > 0 && now.Sub(s.lastException) > s.cfg.ExceptionWindow {
		s.exceptions = 0
	}
	var stalled []*Task
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		switch t.Status() {
		case StatusCompleted, StatusCancelled:
			continue
		case StatusFailed:
			s.exceptions++
			s.lastException = now
			continue
		}
		// Queued tasks wait for a worker; only running ones can stall.
		if t.Status() == StatusRunning && t.HasTimedOut(s.cfg.Timeout) {
			stalled = append(stalled, t)
			continue
		}
		kept = append(kept, t)
	}
	clear(s.tasks[len(kept):])
	s.tasks = kept
	trip := s.exceptions > s.cfg.ExceptionLimit
	report := s.cfg.PerfLogInterval > 0 && now.Sub(s.lastPerfReport) >= s.cfg.PerfLogInterval
	if report {
		s.lastPerfReport = now
	}
	s.mu.Unlock()

	if trip && s.disabled.CompareAndSwap(false, true) {
		s.log.Error("too many generation failures, distant generation disabled", "limit", s.cfg.ExceptionLimit)
	}
	for _, t := range stalled {
		s.log.Warn("generation task timed out, cancelling",
			"task", t.String(), "stalled", t.SinceProgress().Round(time.Millisecond), "timer", t.timer.String())
		t.Cancel()
	}
	if report {
		s.log.Debug("generation performance", "avg", s.perf.String(), "in_flight", s.InFlight(),
			"running_workers", s.pool.RunningWorkers(), "waiting", s.pool.WaitingTasks())
	}
}

// Run calls Housekeep periodically until ctx ends, then stops the scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.HousekeepingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return nil
		case <-ticker.C:
			s.Housekeep()
		}
	}
}

// Stop cancels every in-flight task and waits for the workers to return.
// Workers still inside a stage that ignores its context are abandoned once
// the task timeout elapses.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
	s.cancel()

	stop := s.pool.Stop()
	select {
	case <-stop.Done():
	case <-time.After(s.cfg.Timeout):
		s.log.Warn("generation workers did not stop in time, abandoning them", "running", s.pool.RunningWorkers())
	}
}

// Disabled reports whether the exception breaker tripped.
func (s *Scheduler) Disabled() bool { return s.disabled.Load() }

// InFlight returns the number of tracked, unfinished tasks.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.IsComplete() {
			n++
		}
	}
	return n
}

// Perf returns rolling per-stage averages over recent tasks.
func (s *Scheduler) Perf() string { return s.perf.String() }

// Environment returns the pipeline the scheduler runs.
func (s *Scheduler) Environment() *Environment { return s.env }
