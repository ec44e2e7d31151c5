package worldgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/OCharnyshevich/lodgen/internal/light"
)

// StageFunc runs one stage for chunk c inside region r. It mutates c (and
// possibly neighbours in r) in place.
type StageFunc func(ctx context.Context, r *Region, c *Chunk) error

// LightFunc lights chunk c. wasLightCorrect tells whether the chunk already
// carried correct light; recomputed reports whether light was rebuilt.
type LightFunc func(ctx context.Context, r *Region, c *Chunk, wasLightCorrect bool) (recomputed bool, err error)

// ChunkSource returns the starting chunk for a position. It may return a
// chunk that already sits at a later stage.
type ChunkSource func(ctx context.Context, pos ChunkPos) (*Chunk, error)

// StageStep binds a stage to its function.
type StageStep struct {
	Stage Stage
	Run   StageFunc
	// Flaky steps are retried once with reset generator state before the
	// chunk is given up.
	Flaky bool
}

// EnvironmentConfig describes the generation pipeline.
type EnvironmentConfig struct {
	MinY int
	MaxY int
	// Pool backs the light storage of chunks made by the environment.
	Pool *light.Pool
	// Steps for the stages between StageEmpty and StageLight, exclusive.
	// Stages without a step are recorded as reached without work.
	Steps []StageStep
	Light LightFunc
	// Source loads existing chunks; nil always starts from empty chunks.
	Source ChunkSource
	// NewState creates per-task generator state for a region.
	NewState func(r *Region) GenState
}

// Environment is the fixed, ordered stage pipeline tasks run through.
type Environment struct {
	minY, maxY int
	pool       *light.Pool
	steps      []pipelineStep
	source     ChunkSource
	newState   func(r *Region) GenState
}

type pipelineStep struct {
	stage Stage
	event string
	run   StageFunc
	flaky bool
}

var stageEvents = map[Stage]string{
	StageStructureStart:     "structStart",
	StageStructureReference: "structRef",
	StageBiomes:             "biome",
	StageNoise:              "noise",
	StageSurface:            "surface",
	StageCarvers:            "carver",
	StageFeatures:           "feature",
	StageLight:              "light",
}

// NewEnvironment validates cfg and builds the ordered pipeline.
func NewEnvironment(cfg EnvironmentConfig) (*Environment, error) {
	if cfg.MinY >= cfg.MaxY {
		return nil, fmt.Errorf("invalid vertical range [%d, %d)", cfg.MinY, cfg.MaxY)
	}
	if cfg.Pool == nil {
		cfg.Pool = light.DefaultPool
	}

	byStage := make(map[Stage]StageStep, len(cfg.Steps))
	for _, s := range cfg.Steps {
		if s.Stage <= StageEmpty || s.Stage >= StageLight {
			return nil, fmt.Errorf("step for stage %s: only stages between %s and %s take steps", s.Stage, StageEmpty, StageLight)
		}
		if _, dup := byStage[s.Stage]; dup {
			return nil, fmt.Errorf("duplicate step for stage %s", s.Stage)
		}
		byStage[s.Stage] = s
	}

	env := &Environment{
		minY:     cfg.MinY,
		maxY:     cfg.MaxY,
		pool:     cfg.Pool,
		source:   cfg.Source,
		newState: cfg.NewState,
	}
	for st := StageStructureStart; st < StageLight; st++ {
		s := byStage[st]
		env.steps = append(env.steps, pipelineStep{stage: st, event: stageEvents[st], run: s.Run, flaky: s.Flaky})
	}
	env.steps = append(env.steps,
		pipelineStep{stage: StageLight, event: stageEvents[StageLight], run: lightStep(cfg.Light)},
		pipelineStep{stage: StageFull},
	)
	sort.SliceStable(env.steps, func(i, j int) bool { return env.steps[i].stage < env.steps[j].stage })
	return env, nil
}

// MinY returns the lowest block Y of generated chunks.
func (e *Environment) MinY() int { return e.minY }

// MaxY returns the exclusive upper block Y of generated chunks.
func (e *Environment) MaxY() int { return e.maxY }

// NewChunk creates an empty chunk using the environment's range and pool.
func (e *Environment) NewChunk(pos ChunkPos) *Chunk {
	return NewChunk(pos, e.minY, e.maxY, e.pool)
}

func lightStep(fn LightFunc) StageFunc {
	return func(ctx context.Context, r *Region, c *Chunk) error {
		if fn != nil {
			if _, err := fn(ctx, r, c, c.IsLightCorrect()); err != nil {
				return err
			}
		}
		c.SetLightCorrect(true)
		return nil
	}
}

func (e *Environment) loadOrMake(ctx context.Context, pos ChunkPos, log *slog.Logger) *Chunk {
	if e.source == nil {
		return e.NewChunk(pos)
	}
	c, err := e.source(ctx, pos)
	if err != nil {
		log.Error("load chunk, using an empty one", "chunk", pos.String(), "error", err)
		return e.NewChunk(pos)
	}
	if c == nil {
		return e.NewChunk(pos)
	}
	return c
}

// generate runs the pipeline for t and hands finished chunks to its
// callback. It returns ErrCancelled when the task was stopped.
func (e *Environment) generate(ctx context.Context, t *Task, log *slog.Logger) error {
	border := MaxBorderNeeded
	r := NewRegion(t.origin.X-border, t.origin.Z-border, t.size+2*border, func(pos ChunkPos) *Chunk {
		return e.loadOrMake(ctx, pos, log)
	})
	if e.newState != nil {
		r.SetState(e.newState(r))
	}
	if err := t.checkpoint(); err != nil {
		return err
	}

	failed := make(map[ChunkPos]error)
	for _, step := range e.steps {
		if !t.target.IsOrAfter(step.stage) {
			break
		}
		if step.event != "" {
			t.timer.Next(step.event)
		}

		for _, c := range r.Cutout(MaxBorderNeeded - BorderNeeded(step.stage)) {
			if err := t.checkpoint(); err != nil {
				return err
			}
			if _, bad := failed[c.Pos]; bad || c.Stage().IsOrAfter(step.stage) {
				continue
			}
			if err := e.runStep(ctx, r, c, step, log); err != nil {
				if errors.Is(err, ErrCancelled) || ctx.Err() != nil {
					return ErrCancelled
				}
				failed[c.Pos] = err
				log.Error("chunk generation failed", "task", t.String(), "chunk", c.Pos.String(), "stage", step.stage.String(), "error", err)
				continue
			}
			c.SetStage(step.stage)
		}
		if err := t.checkpoint(); err != nil {
			return err
		}
	}

	t.timer.Next("cleanup")
	for _, c := range r.Cutout(MaxBorderNeeded) {
		if err := t.checkpoint(); err != nil {
			return err
		}
		if _, bad := failed[c.Pos]; bad {
			t.failed.Add(1)
			continue
		}
		if !t.deliver(c) {
			return ErrCancelled
		}
	}
	t.timer.Complete()
	t.RefreshProgress()
	return nil
}

// runStep runs a step for one chunk, retrying flaky steps once with fresh
// generator state.
func (e *Environment) runStep(ctx context.Context, r *Region, c *Chunk, step pipelineStep, log *slog.Logger) error {
	if step.run == nil {
		return nil
	}
	err := step.run(ctx, r, c)
	if err == nil {
		return nil
	}
	if !step.flaky || errors.Is(err, ErrCancelled) || ctx.Err() != nil {
		return &StageError{Stage: step.stage, Pos: c.Pos, Err: err}
	}

	log.Warn("stage failed, retrying with fresh generator state", "chunk", c.Pos.String(), "stage", step.stage.String(), "error", err)
	if st := r.State(); st != nil {
		st.Reset()
	}
	if err := step.run(ctx, r, c); err != nil {
		return &StageError{Stage: step.stage, Pos: c.Pos, Err: err}
	}
	return nil
}
