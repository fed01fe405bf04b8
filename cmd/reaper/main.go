package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"contentflow/internal/adapter/repo"
	"contentflow/internal/infra"
	"contentflow/internal/notify"
	"contentflow/internal/reaper"
)

const defaultSweepInterval = 5 * time.Minute

// sweepConfig is the reaper's YAML configuration.
type sweepConfig struct {
	// Interval between sweeps. Reap latency is bounded by the processing
	// deadline plus this interval.
	Interval time.Duration `yaml:"interval"`
	// RunOnStart forces an immediate sweep before the first tick.
	RunOnStart bool `yaml:"runOnStart"`
}

func loadSweepConfig(path string) (*sweepConfig, error) {
	cfg := &sweepConfig{Interval: defaultSweepInterval, RunOnStart: true}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultSweepInterval
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "", "path to reaper YAML config")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	sweep, err := loadSweepConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("reaper: invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("reaper: db connection failed")
	}
	defer pool.Close()

	items := repo.NewWorkItemRepository(pool)
	notifier := notify.New(repo.NewNotificationRepository(pool), logger)
	rpr := reaper.New(items, notifier, logger)

	logger.Info().Dur("interval", sweep.Interval).Msg("reaper: started")

	if sweep.RunOnStart {
		runSweep(ctx, rpr, logger)
	}

	ticker := time.NewTicker(sweep.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.Canceled) {
				logger.Error().Err(ctx.Err()).Msg("reaper: stopped with error")
			}
			logger.Info().Msg("reaper: stopped")
			return
		case <-ticker.C:
			runSweep(ctx, rpr, logger)
		}
	}
}

func runSweep(ctx context.Context, rpr *reaper.Reaper, logger infra.Logger) {
	result, err := rpr.Sweep(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("reaper: sweep failed")
		return
	}
	if result.ProcessedCount > 0 {
		logger.Info().Int("reaped", result.ProcessedCount).Msg("reaper: items force-failed")
	}
}
