// Command bot runs the voice-presence companion bot. It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and ensures the schema.
//   - Opens the Discord gateway and processes voice transitions.
//   - Exposes /metrics and /healthz.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"vcwarden/internal/config"
	"vcwarden/internal/database"
	"vcwarden/internal/discord"
	"vcwarden/internal/telemetry"
)

func main() {
	// Load configuration (reads .env if present)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("err", err))
		os.Exit(1)
	}

	initLogging(cfg.LogFile)

	// Metrics
	telemetry.Init()
	go telemetry.Serve(cfg.MetricsAddr)

	// Initialize database
	db, err := database.New(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("failed to initialize database", slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()

	repository := database.NewRepository(db)

	// Initialize Discord bot
	bot, err := discord.New(cfg, repository)
	if err != nil {
		slog.Error("failed to create Discord bot", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bot.Start(ctx); err != nil {
		slog.Error("failed to start bot", slog.Any("err", err))
		os.Exit(1)
	}
	defer bot.Stop()

	slog.Info("bot is running",
		slog.Duration("debounce_window", cfg.DebounceWindow),
		slog.String("metrics_addr", cfg.MetricsAddr))

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	slog.Info("shutting down bot")
}

// initLogging installs the default slog handler. LOG_LEVEL and
// LOG_FORMAT (text|json) control output; a non-empty logFile routes
// everything through a rotating file.
func initLogging(logFile string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	var out io.Writer = os.Stdout
	if logFile != "" {
		out = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
	}

	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
}
