package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/OCharnyshevich/lodgen/internal/config"
	"github.com/OCharnyshevich/lodgen/internal/lod"
	"github.com/OCharnyshevich/lodgen/internal/lodstore"
	"github.com/OCharnyshevich/lodgen/internal/pregen"
	"github.com/OCharnyshevich/lodgen/internal/worldgen"
	"github.com/OCharnyshevich/lodgen/internal/worldgen/terrain"
)

func main() {
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "path to a YAML config file")
	configURL := flag.String("config-url", "", "go-getter address of a YAML config file to download")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed")
	flag.IntVar(&cfg.Radius, "radius", cfg.Radius, "pregeneration radius in chunks")
	flag.IntVar(&cfg.OriginX, "origin-x", cfg.OriginX, "centre chunk x")
	flag.IntVar(&cfg.OriginZ, "origin-z", cfg.OriginZ, "centre chunk z")
	flag.StringVar(&cfg.Generator, "generator", cfg.Generator, "terrain generator: default or flat")
	flag.IntVar(&cfg.WorkerThreads, "workers", cfg.WorkerThreads, "generation worker threads")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory of the LOD database")
	flag.StringVar(&cfg.TargetStage, "target-stage", cfg.TargetStage, "stage to generate chunks up to")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := loadConfig(ctx, cfg, *configPath, *configURL); err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}
	if lvl, err := cfg.SlogLevel(); err == nil && lvl != slog.LevelInfo {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error("pregeneration error", "error", err)
		os.Exit(1)
	}
}

// loadConfig fills cfg from the config file, if any, keeping values of flags
// given on the command line.
func loadConfig(ctx context.Context, cfg *config.Config, path, url string) error {
	if url != "" {
		dir, err := os.MkdirTemp("", "lodgen-config")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		path = filepath.Join(dir, "lodgen.yaml")
		if err := config.Fetch(ctx, url, path); err != nil {
			return err
		}
	}

	if path != "" {
		fromFile := config.DefaultConfig()
		if err := config.Load(path, fromFile); err != nil {
			return err
		}
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
	}

	cfg.Normalize()
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	target, err := cfg.Stage()
	if err != nil {
		return err
	}

	store, err := lodstore.Open(filepath.Join(cfg.DataDir, "lod.db"), log)
	if err != nil {
		return err
	}
	defer store.Close()

	env, err := terrain.NewEnvironment(terrain.Options{
		Generator:   cfg.Generator,
		Seed:        cfg.Seed,
		MinY:        cfg.MinY,
		MaxY:        cfg.MaxY,
		HasSkyLight: cfg.HasSkyLight,
	})
	if err != nil {
		return err
	}

	sched := worldgen.NewScheduler(worldgen.SchedulerConfig{
		Workers:              cfg.WorkerThreads,
		Timeout:              cfg.Timeout(),
		HousekeepingInterval: cfg.HousekeepingInterval(),
		PerfLogInterval:      cfg.PerfLogInterval(),
	}, env, log)
	defer sched.Stop()

	log.Info("lodgen starting",
		"seed", cfg.Seed,
		"generator", cfg.Generator,
		"range", []int{cfg.MinY, cfg.MaxY},
		"workers", cfg.WorkerThreads,
		"data_dir", cfg.DataDir,
	)

	driver := pregen.New(pregen.Config{
		Center:               worldgen.ChunkPos{X: cfg.OriginX, Z: cfg.OriginZ},
		Radius:               cfg.Radius,
		BatchSize:            cfg.BatchSize,
		Target:               target,
		MaxInFlight:          cfg.MaxInFlight,
		SubmitRate:           cfg.SubmitRatePerSecond,
		HousekeepingInterval: cfg.HousekeepingInterval(),
		Retries:              1,
	}, sched, lod.NewCache(), store, log)

	stats, err := driver.Start(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("pregeneration stopped", "completed", stats.Completed, "chunks", stats.Chunks)
		return nil
	}
	if err != nil {
		return err
	}
	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	log.Info("lod database ready", "chunks", n, "perf", sched.Perf())
	return nil
}
