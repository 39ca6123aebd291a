package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sevalink/internal/client"
	"sevalink/internal/config"
	"sevalink/internal/models"
	"sevalink/internal/network"
	"sevalink/internal/queue"
	"sevalink/internal/store"
	"sevalink/internal/tracing"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
	statsEvery = flag.Duration("stats-interval", 30*time.Second, "How often to log queue statistics")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("Sevalink %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting sevalink queue daemon")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
			logger.SetLevel(logrus.InfoLevel)
		} else {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// Initialize OpenTelemetry tracing
	tracingManager := tracing.NewManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	st, err := store.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open queue store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warnf("Failed to close queue store: %v", err)
		}
	}()

	engine := queue.NewEngine(st, logger, nil, cfg.Queue)

	probe := network.HTTPProbe(cfg.Network.ProbeURL, nil)
	monitor := network.NewProbeMonitor(
		probe,
		time.Duration(cfg.Network.ProbeIntervalSec)*time.Second,
		time.Duration(cfg.Network.ProbeTimeoutSec)*time.Second,
		logger,
	)
	monitor.Start(ctx)
	defer monitor.Stop()

	drainer := queue.NewDrainer(engine, monitor, logger)

	adapter := client.NewAdapter(engine, drainer, monitor, echoSend(logger), cfg.Queue.SweepIntervalSec, logger)
	if err := adapter.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue adapter: %w", err)
	}
	defer adapter.Stop()

	logger.Info("Queue daemon running")

	ticker := time.NewTicker(*statsEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down")
			return nil
		case <-ticker.C:
			logStats(logger, adapter.Stats(), adapter.IsOnline())
		}
	}
}

// echoSend is the standalone daemon's send function. Embedders replace it
// with their real transport; here a delivery is just logged.
func echoSend(logger *logrus.Logger) models.SendFunc {
	return func(ctx context.Context, item models.QueueItem) error {
		payload, err := json.Marshal(item)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"messageId":      item.ID,
			"conversationId": item.ConversationID,
			"bytes":          len(payload),
		}).Info("Delivered queued message")
		return nil
	}
}

func logStats(logger *logrus.Logger, stats models.QueueStats, online bool) {
	logger.WithFields(logrus.Fields{
		"online":   online,
		"total":    stats.Total,
		"pending":  stats.Pending,
		"retrying": stats.Retrying,
		"failed":   stats.Failed,
	}).Info("Queue statistics")
}
