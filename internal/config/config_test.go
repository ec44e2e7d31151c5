package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if cfg.BatchSize%2 == 0 {
		t.Errorf("BatchSize = %d, want odd", cfg.BatchSize)
	}
	if cfg.Timeout() != 60*time.Second {
		t.Errorf("Timeout() = %v, want 60s", cfg.Timeout())
	}
	st, err := cfg.Stage()
	if err != nil || st != worldgen.StageFull {
		t.Errorf("Stage() = %v, %v, want full", st, err)
	}
}

func TestLoad(t *testing.T) {
	p := writeFile(t, t.TempDir(), "lodgen.yaml", `
seed: 42
generator: flat
min_y: -64
max_y: 320
batch_size: 4
target_stage: light
radius: 3
housekeeping_interval_ms: 100
log_level: debug
has_sky_light: false
`)
	cfg := DefaultConfig()
	if err := Load(p, cfg); err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
	if cfg.Generator != "flat" {
		t.Errorf("Generator = %q, want flat", cfg.Generator)
	}
	if cfg.MinY != -64 || cfg.MaxY != 320 {
		t.Errorf("range = [%d, %d), want [-64, 320)", cfg.MinY, cfg.MaxY)
	}
	if cfg.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.BatchSize)
	}
	if cfg.Radius != 3 {
		t.Errorf("Radius = %d, want 3", cfg.Radius)
	}
	if cfg.HousekeepingInterval() != 100*time.Millisecond {
		t.Errorf("HousekeepingInterval() = %v, want 100ms", cfg.HousekeepingInterval())
	}
	if lvl, _ := cfg.SlogLevel(); lvl != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", lvl)
	}
	if cfg.HasSkyLight {
		t.Error("HasSkyLight = true, want false")
	}
	// Untouched keys keep defaults.
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("TimeoutSeconds = %d, want 60", cfg.TimeoutSeconds)
	}
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "empty.yaml", "")
	cfg := DefaultConfig()
	if err := Load(p, cfg); err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "port: 25565\n"},
		{"unknown generator", "generator: amplified\n"},
		{"unaligned min_y", "min_y: 8\n"},
		{"zero workers", "worker_threads: 0\n"},
		{"bad stage", "target_stage: decorate\n"},
		{"wrong type", "radius: far\n"},
		{"inverted range", "min_y: 256\nmax_y: 0\n"},
		{"bad yaml", "seed: [1\n"},
	}
	dir := t.TempDir()
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, dir, fmt.Sprintf("case%d.yaml", i), tt.body)
			err := Load(p, DefaultConfig())
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Load() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), DefaultConfig())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() = %v, want not exist", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"range", func(c *Config) { c.MinY, c.MaxY = 64, 64 }},
		{"alignment", func(c *Config) { c.MaxY = 100 }},
		{"workers", func(c *Config) { c.WorkerThreads = 0 }},
		{"batch", func(c *Config) { c.BatchSize = 0 }},
		{"radius", func(c *Config) { c.Radius = -1 }},
		{"in flight", func(c *Config) { c.MaxInFlight = 0 }},
		{"rate", func(c *Config) { c.SubmitRatePerSecond = -1 }},
		{"data dir", func(c *Config) { c.DataDir = "" }},
		{"generator", func(c *Config) { c.Generator = "islands" }},
		{"empty stage", func(c *Config) { c.TargetStage = "empty" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.Radius = 2

	fromFile := DefaultConfig()
	fromFile.Seed = 99
	fromFile.Radius = 10
	fromFile.Generator = "flat"
	fromFile.MaxY = 128

	Merge(cfg, fromFile, map[string]bool{"seed": true})

	if cfg.Seed != 7 {
		t.Errorf("Seed = %d, want 7 (flag wins)", cfg.Seed)
	}
	if cfg.Radius != 10 {
		t.Errorf("Radius = %d, want 10 (from file)", cfg.Radius)
	}
	if cfg.Generator != "flat" {
		t.Errorf("Generator = %q, want flat", cfg.Generator)
	}
	if cfg.MaxY != 128 {
		t.Errorf("MaxY = %d, want 128", cfg.MaxY)
	}
}

func TestFetchLocalFile(t *testing.T) {
	src := writeFile(t, t.TempDir(), "preset.yaml", "seed: 1234\nradius: 1\n")
	dst := filepath.Join(t.TempDir(), "fetched", "lodgen.yaml")

	if err := Fetch(context.Background(), src, dst); err != nil {
		t.Fatalf("Fetch() = %v", err)
	}
	cfg := DefaultConfig()
	if err := Load(dst, cfg); err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Seed != 1234 || cfg.Radius != 1 {
		t.Errorf("seed, radius = %d, %d, want 1234, 1", cfg.Seed, cfg.Radius)
	}
}
