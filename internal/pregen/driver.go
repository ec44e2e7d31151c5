package pregen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gammazero/deque"
	"golang.org/x/time/rate"

	"github.com/OCharnyshevich/lodgen/internal/lod"
	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

// Store persists LOD columns.
type Store interface {
	Put(ctx context.Context, cols *lod.Columns) error
	Get(ctx context.Context, pos worldgen.ChunkPos) (*lod.Columns, error)
	Has(ctx context.Context, pos worldgen.ChunkPos, atLeast worldgen.Stage) (bool, error)
}

// Config tunes a Driver.
type Config struct {
	Center    worldgen.ChunkPos
	Radius    int
	BatchSize int
	Target    worldgen.Stage
	// MaxInFlight caps the tasks submitted and not yet finished.
	MaxInFlight int
	// SubmitRate limits task submissions per second; 0 is unlimited.
	SubmitRate           float64
	HousekeepingInterval time.Duration
	// Retries is how often a timed out batch is submitted again.
	Retries int
}

// Stats counts what a run did.
type Stats struct {
	Batches   int
	Skipped   int // already stored
	Submitted int
	Completed int
	Failed    int
	Retried   int
	Chunks    int // columns stored
}

// Driver feeds batches to a scheduler and stores their LOD columns.
type Driver struct {
	cfg   Config
	sched *worldgen.Scheduler
	cache *lod.Cache
	store Store
	log   *slog.Logger

	chunks     atomic.Int64
	storeFails atomic.Int64
}

// New creates a Driver. cache and store may be nil.
func New(cfg Config, sched *worldgen.Scheduler, cache *lod.Cache, store Store, log *slog.Logger) *Driver {
	if cfg.MaxInFlight < 1 {
		cfg.MaxInFlight = 1
	}
	if cfg.HousekeepingInterval <= 0 {
		cfg.HousekeepingInterval = 250 * time.Millisecond
	}
	return &Driver{cfg: cfg, sched: sched, cache: cache, store: store, log: log}
}

type inFlight struct {
	batch   Batch
	retries int
}

// Start pregenerates every planned batch and blocks until all of them
// finished or ctx ends. Tasks still running when ctx ends are cancelled.
func (d *Driver) Start(ctx context.Context) (Stats, error) {
	batches := Plan(d.cfg.Center, d.cfg.Radius, d.cfg.BatchSize)
	stats := Stats{Batches: len(batches)}

	var pending deque.Deque[inFlight]
	for _, b := range batches {
		pending.PushBack(inFlight{batch: b})
	}
	running := make(map[*worldgen.Task]inFlight)
	defer func() {
		for t := range running {
			t.Cancel()
		}
	}()

	limit := rate.Inf
	burst := 1
	if d.cfg.SubmitRate > 0 {
		limit = rate.Limit(d.cfg.SubmitRate)
		burst = max(1, int(d.cfg.SubmitRate))
	}
	limiter := rate.NewLimiter(limit, burst)
	callback := d.storeChunk(ctx)

	d.log.Info("pregeneration started",
		"center", d.cfg.Center.String(),
		"radius", d.cfg.Radius,
		"batches", len(batches),
		"target", d.cfg.Target.String(),
	)
	started := time.Now()

	ticker := time.NewTicker(d.cfg.HousekeepingInterval)
	defer ticker.Stop()

	for {
		for t, f := range running {
			if !t.IsComplete() {
				continue
			}
			delete(running, t)
			d.reap(t, f, &pending, &stats)
		}

		if pending.Len() == 0 && len(running) == 0 {
			stats.Chunks = int(d.chunks.Load())
			d.log.Info("pregeneration finished",
				"elapsed", time.Since(started).Round(time.Millisecond),
				"submitted", stats.Submitted,
				"skipped", stats.Skipped,
				"failed", stats.Failed,
				"chunks", stats.Chunks,
				"store_errors", d.storeFails.Load(),
			)
			return stats, nil
		}

		// One pass over the queue: batches too close to running ones go to
		// the back and wait for the next tick.
		for n := pending.Len(); n > 0 && len(running) < d.cfg.MaxInFlight; n-- {
			f := pending.PopFront()
			if f.retries == 0 && d.stored(ctx, f.batch) {
				stats.Skipped++
				d.warm(ctx, f.batch)
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				stats.Chunks = int(d.chunks.Load())
				return stats, ctx.Err()
			}
			t, err := d.sched.TrySubmit(f.batch.Origin, f.batch.Size, d.cfg.Target, callback)
			switch {
			case errors.Is(err, worldgen.ErrTooClose):
				pending.PushBack(f)
				continue
			case err != nil:
				stats.Chunks = int(d.chunks.Load())
				return stats, fmt.Errorf("submit batch %s: %w", f.batch, err)
			}
			running[t] = f
			stats.Submitted++
		}

		select {
		case <-ctx.Done():
			stats.Chunks = int(d.chunks.Load())
			d.log.Info("pregeneration interrupted", "pending", pending.Len(), "running", len(running))
			return stats, ctx.Err()
		case <-ticker.C:
			d.sched.Housekeep()
			if d.sched.Disabled() {
				stats.Chunks = int(d.chunks.Load())
				return stats, worldgen.ErrGenerationDisabled
			}
		}
	}
}

func (d *Driver) reap(t *worldgen.Task, f inFlight, pending *deque.Deque[inFlight], stats *Stats) {
	switch t.Status() {
	case worldgen.StatusCompleted:
		stats.Completed++
		res := t.Result()
		if res.Failed > 0 {
			d.log.Warn("batch finished with failed chunks", "batch", f.batch.String(), "delivered", res.Delivered, "failed", res.Failed)
		} else {
			d.log.Debug("batch finished", "batch", f.batch.String(), "delivered", res.Delivered, "timer", t.Timer().String())
		}
	case worldgen.StatusCancelled:
		if f.retries < d.cfg.Retries {
			f.retries++
			stats.Retried++
			d.log.Warn("batch cancelled, retrying", "batch", f.batch.String(), "attempt", f.retries)
			pending.PushBack(f)
			return
		}
		stats.Failed++
		d.log.Error("batch cancelled, giving up", "batch", f.batch.String())
	case worldgen.StatusFailed:
		stats.Failed++
		d.log.Error("batch failed", "batch", f.batch.String(), "error", t.Err())
	}
}

// stored reports whether every chunk of b is already persisted at the target
// stage. Lookup errors count as not stored.
func (d *Driver) stored(ctx context.Context, b Batch) bool {
	if d.store == nil {
		return false
	}
	for _, pos := range b.Chunks() {
		ok, err := d.store.Has(ctx, pos, d.cfg.Target)
		if err != nil {
			d.log.Warn("check stored chunk", "chunk", pos.String(), "error", err)
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

// warm loads the stored columns of a skipped batch into the cache.
func (d *Driver) warm(ctx context.Context, b Batch) {
	if d.cache == nil {
		return
	}
	load := func(pos worldgen.ChunkPos) (*lod.Columns, error) { return d.store.Get(ctx, pos) }
	for _, pos := range b.Chunks() {
		if _, err := d.cache.GetOrLoad(pos, load); err != nil {
			d.log.Warn("load stored columns", "chunk", pos.String(), "error", err)
		}
	}
}

// storeChunk returns the task callback. It runs on generation workers.
func (d *Driver) storeChunk(ctx context.Context) func(*worldgen.Chunk) {
	return func(c *worldgen.Chunk) {
		cols := lod.BuildColumns(c)
		if d.cache != nil {
			d.cache.Put(cols)
		}
		if d.store != nil {
			if err := d.store.Put(ctx, cols); err != nil {
				d.storeFails.Add(1)
				d.log.Error("store lod columns", "chunk", c.Pos.String(), "error", err)
				return
			}
		}
		d.chunks.Add(1)
	}
}
