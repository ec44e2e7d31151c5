package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

//go:embed config.schema.json
var schemaJSON string

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("config.schema.json", schemaJSON)
})

// Config holds the pregeneration settings.
type Config struct {
	Seed      int64  `json:"seed" yaml:"seed"`
	Generator string `json:"generator" yaml:"generator"` // "default" or "flat"
	OriginX   int    `json:"origin_x" yaml:"origin_x"`   // centre chunk of the pregenerated area
	OriginZ   int    `json:"origin_z" yaml:"origin_z"`
	MinY      int    `json:"min_y" yaml:"min_y"`
	MaxY      int    `json:"max_y" yaml:"max_y"`

	WorkerThreads int    `json:"worker_threads" yaml:"worker_threads"`
	BatchSize     int    `json:"batch_size" yaml:"batch_size"` // chunks per batch side, made odd
	TargetStage   string `json:"target_stage" yaml:"target_stage"`
	Radius        int    `json:"radius" yaml:"radius"` // in chunks around the origin

	TimeoutSeconds         int     `json:"timeout_seconds" yaml:"timeout_seconds"`
	HousekeepingIntervalMS int     `json:"housekeeping_interval_ms" yaml:"housekeeping_interval_ms"`
	SubmitRatePerSecond    float64 `json:"submit_rate_per_second" yaml:"submit_rate_per_second"` // 0 = unlimited
	MaxInFlight            int     `json:"max_in_flight" yaml:"max_in_flight"`

	DataDir                string `json:"data_dir" yaml:"data_dir"`
	LogLevel               string `json:"log_level" yaml:"log_level"`
	PerfLogIntervalSeconds int    `json:"perf_log_interval_seconds" yaml:"perf_log_interval_seconds"` // 0 = never
	HasSkyLight            bool   `json:"has_sky_light" yaml:"has_sky_light"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	workers := max(1, runtime.NumCPU()/2)
	return &Config{
		Generator:              "default",
		MinY:                   0,
		MaxY:                   256,
		WorkerThreads:          workers,
		BatchSize:              5,
		TargetStage:            worldgen.StageFull.String(),
		Radius:                 16,
		TimeoutSeconds:         60,
		HousekeepingIntervalMS: 250,
		SubmitRatePerSecond:    20,
		MaxInFlight:            workers * 2,
		DataDir:                "lod-data",
		LogLevel:               "info",
		PerfLogIntervalSeconds: 10,
		HasSkyLight:            true,
	}
}

// Load reads the YAML file at path into cfg. Keys missing from the file keep
// the values cfg already holds. The document is checked against the config
// schema before it is decoded.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := validateDocument(data); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg.Validate()
}

// validateDocument checks raw YAML against the embedded schema. The YAML is
// re-encoded as JSON so the validator sees plain JSON values.
func validateDocument(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Normalize canonicalises names and grows an even batch size by one.
func (c *Config) Normalize() {
	c.Generator = strings.ToLower(strings.TrimSpace(c.Generator))
	if c.Generator == "" {
		c.Generator = "default"
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.TargetStage = strings.ToLower(strings.TrimSpace(c.TargetStage))
	if c.BatchSize > 0 && c.BatchSize%2 == 0 {
		c.BatchSize++
	}
}

// Validate checks the settings the schema cannot express and the ones that
// may have come from flags.
func (c *Config) Validate() error {
	var errs []error
	if c.MinY >= c.MaxY {
		errs = append(errs, fmt.Errorf("min_y %d must be below max_y %d", c.MinY, c.MaxY))
	}
	if c.MinY%16 != 0 || c.MaxY%16 != 0 {
		errs = append(errs, fmt.Errorf("min_y %d and max_y %d must be multiples of 16", c.MinY, c.MaxY))
	}
	if c.WorkerThreads < 1 {
		errs = append(errs, fmt.Errorf("worker_threads %d must be positive", c.WorkerThreads))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch_size %d must be positive", c.BatchSize))
	}
	if c.Radius < 0 {
		errs = append(errs, fmt.Errorf("radius %d must not be negative", c.Radius))
	}
	if c.TimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("timeout_seconds %d must be positive", c.TimeoutSeconds))
	}
	if c.MaxInFlight < 1 {
		errs = append(errs, fmt.Errorf("max_in_flight %d must be positive", c.MaxInFlight))
	}
	if c.SubmitRatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("submit_rate_per_second %g must not be negative", c.SubmitRatePerSecond))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	switch c.Generator {
	case "default", "flat":
	default:
		errs = append(errs, fmt.Errorf("unknown generator %q", c.Generator))
	}
	if st, err := worldgen.ParseStage(c.TargetStage); err != nil {
		errs = append(errs, err)
	} else if st == worldgen.StageEmpty {
		errs = append(errs, errors.New("target_stage must be past empty"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Stage returns the parsed target stage.
func (c *Config) Stage() (worldgen.Stage, error) { return worldgen.ParseStage(c.TargetStage) }

// SlogLevel returns the parsed log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

func (c *Config) Timeout() time.Duration { return time.Duration(c.TimeoutSeconds) * time.Second }

func (c *Config) HousekeepingInterval() time.Duration {
	return time.Duration(c.HousekeepingIntervalMS) * time.Millisecond
}

func (c *Config) PerfLogInterval() time.Duration {
	return time.Duration(c.PerfLogIntervalSeconds) * time.Second
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["generator"] {
		cfg.Generator = fromFile.Generator
	}
	if !explicitFlags["origin-x"] {
		cfg.OriginX = fromFile.OriginX
	}
	if !explicitFlags["origin-z"] {
		cfg.OriginZ = fromFile.OriginZ
	}
	if !explicitFlags["radius"] {
		cfg.Radius = fromFile.Radius
	}
	if !explicitFlags["workers"] {
		cfg.WorkerThreads = fromFile.WorkerThreads
	}
	if !explicitFlags["data-dir"] {
		cfg.DataDir = fromFile.DataDir
	}
	if !explicitFlags["target-stage"] {
		cfg.TargetStage = fromFile.TargetStage
	}
	cfg.MinY = fromFile.MinY
	cfg.MaxY = fromFile.MaxY
	cfg.BatchSize = fromFile.BatchSize
	cfg.TimeoutSeconds = fromFile.TimeoutSeconds
	cfg.HousekeepingIntervalMS = fromFile.HousekeepingIntervalMS
	cfg.SubmitRatePerSecond = fromFile.SubmitRatePerSecond
	cfg.MaxInFlight = fromFile.MaxInFlight
	cfg.LogLevel = fromFile.LogLevel
	cfg.PerfLogIntervalSeconds = fromFile.PerfLogIntervalSeconds
	cfg.HasSkyLight = fromFile.HasSkyLight
}
