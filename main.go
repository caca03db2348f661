package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"snakevolve/archive"
	"snakevolve/config"
	"snakevolve/neural"
	"snakevolve/sim"
	"snakevolve/telemetry"
	"snakevolve/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without the terminal UI")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxGens := flag.Int("max-gens", 0, "Stop after N generations (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	archivePath := flag.String("archive", "", "SQLite archive path (empty = disabled)")
	loadPath := flag.String("load", "", "Start every genome from this saved network")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	var seedNet *neural.Net
	if *loadPath != "" {
		seedNet, err = neural.LoadFile(*loadPath)
		if err != nil {
			slog.Error("failed to load network", "path", *loadPath, "error", err)
			os.Exit(1)
		}
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to set up output directory", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var store *archive.Store
	if *archivePath != "" {
		store, err = archive.Open(ctx, *archivePath)
		if err != nil {
			slog.Error("failed to open archive", "error", err)
			os.Exit(1)
		}
		defer store.Close()

		runID, err := store.BeginRun(ctx, rngSeed, cfg)
		if err != nil {
			slog.Error("failed to register run", "error", err)
			os.Exit(1)
		}
		slog.Info("archiving run", "run_id", runID, "path", *archivePath)
	}

	driver, err := sim.NewDriver(cfg, rngSeed, seedNet)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	defer driver.Close()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"board", cfg.Board.Size,
		"population", cfg.Population.Size,
		"topology", cfg.Derived.Topology,
		"headless", *headless,
	)

	if *headless {
		runHeadless(ctx, driver, cfg, out, store, *maxGens)
		return
	}
	runWithUI(ctx, driver, cfg, out, store, *maxGens)
}

// onGeneration records a finished generation everywhere it needs to go.
func onGeneration(ctx context.Context, stats *telemetry.GenerationStats,
	driver *sim.Driver, out *telemetry.OutputManager, store *archive.Store) {

	slog.Info("generation complete",
		"generation", stats.Generation,
		"max_score", stats.MaxScore,
		"best_score", stats.BestScore,
		"max_fitness", stats.MaxFitness,
		"duration_sec", stats.DurationSec,
	)

	if err := out.WriteGeneration(*stats); err != nil {
		slog.Error("failed to write generation stats", "error", err)
	}
	if store != nil {
		if err := store.RecordGeneration(ctx, *stats, driver.BestNet()); err != nil {
			slog.Error("failed to archive generation", "error", err)
		}
	}
}

func runHeadless(ctx context.Context, driver *sim.Driver, cfg *config.Config,
	out *telemetry.OutputManager, store *archive.Store, maxGens int) {

	for {
		stats, err := driver.Step()
		if err != nil {
			slog.Error("failed to save best network", "error", err)
		}
		if stats == nil {
			continue
		}

		onGeneration(ctx, stats, driver, out, store)

		if maxGens > 0 && stats.Generation+1 >= maxGens {
			slog.Info("max generations reached", "generations", maxGens)
			return
		}
		// Stop requests are honored at generation boundaries only
		select {
		case <-ctx.Done():
			slog.Info("interrupted", "generation", stats.Generation)
			return
		default:
		}
	}
}

func runWithUI(ctx context.Context, driver *sim.Driver, cfg *config.Config,
	out *telemetry.OutputManager, store *archive.Store, maxGens int) {

	ui, err := tui.New()
	if err != nil {
		slog.Error("failed to initialize terminal UI", "error", err)
		os.Exit(1)
	}
	defer ui.Close()

	frameEvery := time.Duration(cfg.Viz.FrameEveryMS) * time.Millisecond
	lastFrame := time.Now()

	for {
		stats, err := driver.Step()
		if err != nil {
			slog.Error("failed to save best network", "error", err)
		}
		if stats != nil {
			onGeneration(ctx, stats, driver, out, store)
			ui.RecordGeneration(*stats)

			if maxGens > 0 && stats.Generation+1 >= maxGens {
				return
			}
			select {
			case <-ui.Quit():
				return
			case <-ctx.Done():
				return
			default:
			}
		}

		// Low-detail mode redraws only at generation boundaries
		if cfg.Viz.LowDetail {
			if stats != nil {
				ui.Draw(driver.Snapshot(), true)
			}
			continue
		}
		if time.Since(lastFrame) >= frameEvery {
			ui.Draw(driver.Snapshot(), false)
			lastFrame = time.Now()
		}
	}
}
