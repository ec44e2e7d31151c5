package worldgen

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCancelled stops a pipeline at the next chunk boundary.
	ErrCancelled = errors.New("generation task cancelled")
	// ErrSchedulerStopped is returned by Submit after Stop.
	ErrSchedulerStopped = errors.New("generation scheduler stopped")
	// ErrTooClose is returned by TrySubmit when an in-flight task overlaps
	// or borders the requested square.
	ErrTooClose = errors.New("batch too close to an in-flight generation task")
	// ErrGenerationDisabled is returned by Submit once too many tasks
	// failed in quick succession.
	ErrGenerationDisabled = errors.New("distant generation disabled after repeated failures")
)

// StageError is a stage failure for one chunk.
type StageError struct {
	Stage Stage
	Pos   ChunkPos
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s for chunk %s: %v", e.Stage, e.Pos, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string { return fmt.Sprintf("generation task panicked: %v", e.Value) }

type workerKey struct{}

// WithGenerationWorker marks ctx as belonging to a generation worker.
// Collaborators use IsGenerationWorker to avoid scheduling work recursively.
func WithGenerationWorker(ctx context.Context) context.Context {
	return context.WithValue(ctx, workerKey{}, true)
}

// IsGenerationWorker reports whether ctx was marked by WithGenerationWorker.
func IsGenerationWorker(ctx context.Context) bool {
	v, _ := ctx.Value(workerKey{}).(bool)
	return v
}
