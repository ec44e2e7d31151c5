package worldgen

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the lifecycle state of a Task.
type Status int32

const (
	StatusQueued Status = iota
	StatusRunning
	StatusCompleted
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool { return s >= StatusCompleted }

// TaskResult summarises what a finished task delivered.
type TaskResult struct {
	Delivered int // chunks handed to the callback
	Failed    int // chunks dropped after a stage failure
}

// Task is one batch generation request: a size×size square of chunks whose
// lowest corner is Origin, generated up to Target.
type Task struct {
	id       uint64
	origin   ChunkPos
	size     int
	target   Stage
	callback func(*Chunk)
	log      *slog.Logger

	created      time.Time
	startedAt    atomic.Int64 // nanoseconds since created, -1 until running
	lastProgress atomic.Int64 // nanoseconds since created

	status atomic.Int32
	// deliverMu is held while the callback runs so Cancel never returns
	// with a callback still in progress.
	deliverMu sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once

	timer     *StageTimer
	delivered atomic.Int32
	failed    atomic.Int32

	errMu sync.Mutex
	err   error
}

func newTask(parent context.Context, id uint64, origin ChunkPos, size int, target Stage, callback func(*Chunk), log *slog.Logger) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{
		id:       id,
		origin:   origin,
		size:     size,
		target:   target,
		callback: callback,
		log:      log,
		created:  time.Now(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		timer:    NewStageTimer("setup"),
	}
	t.startedAt.Store(-1)
	return t
}

// ID returns the task's debug identifier.
func (t *Task) ID() uint64 { return t.id }

// Origin returns the lowest corner chunk of the batch.
func (t *Task) Origin() ChunkPos { return t.origin }

// Size returns the (odd) width of the batch in chunks.
func (t *Task) Size() int { return t.size }

// Target returns the stage the batch is generated up to.
func (t *Task) Target() Stage { return t.target }

// Status returns the current lifecycle state.
func (t *Task) Status() Status { return Status(t.status.Load()) }

// IsComplete reports whether the task reached a terminal state.
func (t *Task) IsComplete() bool { return t.Status().Terminal() }

// Done is closed when the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task is terminal or ctx ends.
func (t *Task) Wait(ctx context.Context) (Status, error) {
	select {
	case <-t.done:
		return t.Status(), nil
	case <-ctx.Done():
		return t.Status(), ctx.Err()
	}
}

// Result returns the delivered and failed chunk counts so far.
func (t *Task) Result() TaskResult {
	return TaskResult{Delivered: int(t.delivered.Load()), Failed: int(t.failed.Load())}
}

// Err returns the error that failed the task, if any.
func (t *Task) Err() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	return t.err
}

// Timer returns the per-stage timer of the task.
func (t *Task) Timer() *StageTimer { return t.timer }

// QueueTime returns how long the task waited before a worker picked it up,
// or the time waited so far while still queued.
func (t *Task) QueueTime() time.Duration {
	if s := t.startedAt.Load(); s >= 0 {
		return time.Duration(s)
	}
	return time.Since(t.created)
}

// RefreshProgress records that the task made forward progress.
func (t *Task) RefreshProgress() {
	t.lastProgress.Store(int64(time.Since(t.created)))
}

// SinceProgress returns the time since the last progress refresh (or since
// submission when none happened).
func (t *Task) SinceProgress() time.Duration {
	return time.Since(t.created) - time.Duration(t.lastProgress.Load())
}

// HasTimedOut reports whether a non-terminal task has made no progress for
// longer than d. Total runtime does not matter, only the stall.
func (t *Task) HasTimedOut(d time.Duration) bool {
	if t.IsComplete() {
		return false
	}
	return t.SinceProgress() > d
}

// Cancel stops the task. A queued task never starts; a running task has its
// context cancelled and is detached: it is reported cancelled at once and
// anything its worker produces afterwards is discarded. Cancel returns false
// when the task had already finished. A callback running when Cancel is
// called completes before Cancel returns; the callback must therefore not
// cancel its own task.
func (t *Task) Cancel() bool {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()
	for {
		cur := Status(t.status.Load())
		if cur.Terminal() {
			return false
		}
		if !t.status.CompareAndSwap(int32(cur), int32(StatusCancelled)) {
			continue
		}
		if cur == StatusRunning {
			stacks, n := workerStacks()
			t.log.Info("dumping generation worker stacks", "task", t.String(), "workers", n, "stacks", stacks)
		}
		t.cancel()
		t.once.Do(func() { close(t.done) })
		return true
	}
}

// OverlapsOrIsNear reports whether the square of width chunks at
// (minX, minZ) intersects this task's square once both are grown by the
// one-chunk border generation reads from neighbours.
func (t *Task) OverlapsOrIsNear(minX, minZ, width int) bool {
	aSize := t.size + 1
	width++
	return t.origin.X+aSize >= minX &&
		t.origin.X <= minX+width &&
		t.origin.Z+aSize >= minZ &&
		t.origin.Z <= minZ+width
}

func (t *Task) String() string {
	return fmt.Sprintf("%d:%d@%s(%s)", t.id, t.size, t.origin, t.target)
}

// start moves a queued task to running. It returns false when the task was
// cancelled before a worker picked it up.
func (t *Task) start() bool {
	if !t.status.CompareAndSwap(int32(StatusQueued), int32(StatusRunning)) {
		return false
	}
	t.startedAt.Store(int64(time.Since(t.created)))
	t.RefreshProgress()
	return true
}

// finish moves a running task to a terminal state. It returns false when
// the task was cancelled meanwhile.
func (t *Task) finish(s Status, err error) bool {
	if !t.status.CompareAndSwap(int32(StatusRunning), int32(s)) {
		return false
	}
	if err != nil {
		t.errMu.Lock()
		t.err = err
		t.errMu.Unlock()
	}
	t.cancel()
	t.once.Do(func() { close(t.done) })
	return true
}

// finishCancelled moves a running task whose context ended to cancelled.
func (t *Task) finishCancelled() {
	if t.status.CompareAndSwap(int32(StatusRunning), int32(StatusCancelled)) {
		t.cancel()
		t.once.Do(func() { close(t.done) })
	}
}

// checkpoint refreshes progress and reports whether the task should stop.
func (t *Task) checkpoint() error {
	t.RefreshProgress()
	if t.ctx.Err() != nil || t.Status() == StatusCancelled {
		return ErrCancelled
	}
	return nil
}

// deliver hands a finished chunk to the callback unless the task was
// cancelled.
func (t *Task) deliver(c *Chunk) bool {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()
	if t.Status() != StatusRunning {
		return false
	}
	if t.callback != nil {
		t.callback(c)
	}
	t.delivered.Add(1)
	return true
}
