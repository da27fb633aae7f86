package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polysent/config"
	"github.com/alejandrodnm/polysent/internal/adapters/export"
	"github.com/alejandrodnm/polysent/internal/adapters/newsapi"
	"github.com/alejandrodnm/polysent/internal/adapters/notify"
	"github.com/alejandrodnm/polysent/internal/adapters/openai"
	"github.com/alejandrodnm/polysent/internal/adapters/polymarket"
	"github.com/alejandrodnm/polysent/internal/adapters/render"
	"github.com/alejandrodnm/polysent/internal/adapters/storage"
	"github.com/alejandrodnm/polysent/internal/adapters/universe"
	"github.com/alejandrodnm/polysent/internal/application/pipeline"
	"github.com/alejandrodnm/polysent/internal/backtest"
	"github.com/alejandrodnm/polysent/internal/domain"
)

const (
	chartPath = "equity_curve.html"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	marketsPath := flag.String("markets", "markets_macro.json", "path to markets universe JSON")
	months := flag.Int("months", 0, "lookback months (overrides config)")
	dbPath := flag.String("db", "", "SQLite path (overrides config)")
	offline := flag.Bool("offline", false, "use only cached data, never call external APIs")
	csvPath := flag.String("csv", "trades_macro_backtest.csv", "write trades CSV here (empty to disable)")
	plot := flag.Bool("plot", false, "write the equity curve to "+chartPath)
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *months > 0 {
		cfg.Strategy.Months = *months
	}
	if *dbPath != "" {
		cfg.Storage.DSN = *dbPath
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	runID := uuid.NewString()
	startedAt := time.Now().UTC()

	slog.Info("polysent backtester starting",
		"run_id", runID,
		"config", *configPath,
		"markets", *marketsPath,
		"months", cfg.Strategy.Months,
		"window_hours", cfg.Strategy.WindowHours,
		"offline", *offline,
	)

	markets, rejected, err := universe.Load(*marketsPath)
	if err != nil {
		slog.Error("failed to load markets universe", "err", err)
		os.Exit(1)
	}
	if len(rejected) > 0 {
		slog.Warn("universe has invalid records", "rejected", len(rejected))
		for _, r := range rejected {
			slog.Debug("rejected market", "token", r.TokenID, "reason", r.Reason)
		}
	}
	if len(markets) == 0 {
		slog.Error("no valid markets in universe", "path", *marketsPath)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	strategy := backtest.Config{
		WindowHours:       cfg.Strategy.WindowHours,
		MaxHoursToResolve: cfg.Strategy.MaxHoursToResolve,
		BuyThreshold:      cfg.Strategy.BuyThreshold,
		SellThreshold:     cfg.Strategy.SellThreshold,
		TradeSizeUSD:      cfg.Strategy.TradeSizeUSD,
		Workers:           cfg.Strategy.Workers,
	}

	p := pipeline.New(
		pipeline.Config{Strategy: strategy, Offline: *offline},
		store,
		polymarket.NewClient(cfg.API.CLOBBase),
		newsapi.NewClient(cfg.API.NewsAPIBase, cfg.API.NewsAPIKey),
		openai.NewClient(cfg.API.OpenAIBase, cfg.API.OpenAIKey, cfg.API.OpenAIModel),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	to := startedAt
	from := cfg.LookbackStart(to)
	result, err := p.Run(ctx, markets, from, to)
	if err != nil {
		slog.Error("backtest failed", "err", err, "run_id", runID)
		os.Exit(1)
	}

	// Los registros malformados del universo también se reportan como descartes.
	result.Skipped = append(result.Skipped, rejected...)
	sort.Slice(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].TokenID < result.Skipped[j].TokenID
	})

	notifier := notify.NewConsole(*verbose)
	if err := notifier.Report(ctx, result); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	rec := domain.RunRecord{
		ID:                runID,
		StartedAt:         startedAt,
		FinishedAt:        time.Now().UTC(),
		WindowHours:       strategy.WindowHours,
		MaxHoursToResolve: strategy.MaxHoursToResolve,
		BuyThreshold:      strategy.BuyThreshold,
		SellThreshold:     strategy.SellThreshold,
		TradeSizeUSD:      strategy.TradeSizeUSD,
		Summary:           result.Summary,
	}
	if err := store.SaveRun(ctx, rec, result.Trades); err != nil {
		slog.Error("failed to persist run", "err", err, "run_id", runID)
	}

	if *csvPath != "" {
		if err := export.WriteTradesFile(*csvPath, result.Trades); err != nil {
			slog.Warn("failed to write trades CSV", "err", err, "path", *csvPath)
		} else {
			slog.Info("trades exported", "path", *csvPath, "trades", len(result.Trades))
		}
	}

	if *plot {
		// Best effort: un fallo del chart no invalida el run.
		if err := render.NewEChartsRenderer(chartPath).Render(ctx, result); err != nil {
			slog.Warn("failed to render equity chart", "err", err)
		}
	}

	slog.Info("backtest finished",
		"run_id", runID,
		"markets", result.Summary.Markets,
		"trades", result.Summary.Trades,
		"total_pnl", result.Summary.TotalPnL,
		"duration", time.Since(startedAt).Round(time.Millisecond),
	)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
