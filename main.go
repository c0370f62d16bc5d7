package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/game"
	"github.com/pthm-cable/meadow/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output census and perf stats via slog")
	logInterval := flag.Int("log-interval", 0, "Ticks between world-state logs (0 = use config, -1 = off)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotPath := flag.String("snapshot", "", "Restore the field from a snapshot file")
	snapshotOnBookmark := flag.Bool("snapshot-on-bookmark", false, "Save a snapshot into the output directory when a bookmark fires")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	var snapshot *telemetry.Snapshot
	if *snapshotPath != "" {
		s, err := telemetry.LoadSnapshot(*snapshotPath)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		snapshot = s
	}

	opts := game.Options{
		Seed:               rngSeed,
		LogStats:           *logStats,
		LogInterval:        *logInterval,
		OutputDir:          *outputDir,
		SnapshotOnBookmark: *snapshotOnBookmark,
		Snapshot:           snapshot,
	}

	g := game.NewGameWithOptions(opts)
	defer g.Unload()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"organisms", len(g.Live()),
	)

	start := time.Now()
	for {
		g.UpdateHeadless()

		if len(g.Live()) == 0 {
			slog.Info("field empty", "tick", g.Tick())
			break
		}
		if *maxTicks > 0 && g.Tick() >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}
	}

	slog.Info("simulation finished",
		"tick", g.Tick(),
		"organisms", len(g.Live()),
		"population", g.Counts(),
		"elapsed", time.Since(start).String(),
	)
}
