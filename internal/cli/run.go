package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/agentlink/internal/config"
	"github.com/openclaw/agentlink/internal/cursor"
	"github.com/openclaw/agentlink/internal/delivery"
	"github.com/openclaw/agentlink/internal/metrics"
	"github.com/openclaw/agentlink/internal/server"
	"github.com/openclaw/agentlink/internal/stream"
	"github.com/openclaw/agentlink/internal/trigger"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bridge",
	RunE:  runBridge,
}

func runBridge(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg.Logging)

	if !cfg.IsEnabled() {
		logger.Info("bridge disabled by configuration; nothing to do")
		return nil
	}

	push, pull := pathsToStart(cfg, logger)
	if !push && !pull {
		logger.Warn("no bridge path could start; check mode and credentials")
		return nil
	}

	deliveries, err := delivery.NewMemoryStore(cfg.Deliveries.Capacity)
	if err != nil {
		return fmt.Errorf("creating delivery store: %w", err)
	}

	runner := &trigger.CLIRunner{
		Command: cfg.Agent.Command,
		Timeout: cfg.Agent.Timeout.Std(),
		Logger:  logger,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	var httpSrv *http.Server
	if push {
		srv := server.New(cfg, runner, deliveries, logger)
		addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port))
		httpSrv = &http.Server{
			Addr:              addr,
			Handler:           srv,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("push listener starting", "addr", addr, "path", cfg.Server.Path)
			errCh <- httpSrv.ListenAndServe()
		}()
	} else if cfg.Metrics.Addr != "" {
		// Pull-only deployments still get scrapeable metrics.
		httpSrv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("metrics listener starting", "addr", cfg.Metrics.Addr)
			errCh <- httpSrv.ListenAndServe()
		}()
	}

	var client *stream.Client
	if pull {
		client = stream.New(stream.Config{
			BaseURL:      cfg.Remote.BaseURL,
			AgentToken:   cfg.Remote.AgentToken,
			PollInterval: cfg.Remote.PollInterval.Std(),
			AgentName:    cfg.Agent.Name,
		}, stream.Deps{
			Cursor:     &cursor.Store{Path: cfg.CursorFile},
			Trigger:    runner,
			Deliveries: deliveries,
			Logger:     logger,
		})
		logger.Info("pull stream starting", "base_url", cfg.Remote.BaseURL)
		client.Start()
	}

	select {
	case err := <-errCh:
		if client != nil {
			client.Stop()
		}
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		if client != nil {
			client.Stop()
		}
		if httpSrv != nil {
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutCtx); err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
		}
	}

	logger.Info("bridge stopped")
	return nil
}

// pathsToStart applies the mode and the soft credential requirements: a
// selected path missing its secret is skipped with a warning, not an error.
func pathsToStart(cfg *config.Config, logger *slog.Logger) (push, pull bool) {
	if cfg.Mode == config.ModePush || cfg.Mode == config.ModeBoth {
		if cfg.PushConfigured() {
			push = true
		} else {
			logger.Warn("push path disabled: server.push_token is not set")
		}
	}
	if cfg.Mode == config.ModePull || cfg.Mode == config.ModeBoth {
		if cfg.PullConfigured() {
			pull = true
		} else {
			logger.Warn("pull path disabled: remote.base_url and remote.agent_token are required")
		}
	}
	return push, pull
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
