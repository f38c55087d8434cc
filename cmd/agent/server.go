package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/muriloWeber/linkedin-content-agent/internal/api"
	"github.com/muriloWeber/linkedin-content-agent/internal/approval"
	"github.com/muriloWeber/linkedin-content-agent/internal/composer"
	"github.com/muriloWeber/linkedin-content-agent/internal/config"
	"github.com/muriloWeber/linkedin-content-agent/internal/generator"
	"github.com/muriloWeber/linkedin-content-agent/internal/llm"
	"github.com/muriloWeber/linkedin-content-agent/internal/notify"
	"github.com/muriloWeber/linkedin-content-agent/internal/obs"
	"github.com/muriloWeber/linkedin-content-agent/internal/scheduler"
	"github.com/muriloWeber/linkedin-content-agent/internal/session"
	"github.com/muriloWeber/linkedin-content-agent/internal/storage"
	"github.com/muriloWeber/linkedin-content-agent/internal/topics"
	"github.com/muriloWeber/linkedin-content-agent/internal/usage"
)

// topicPoolSize is the minimum number of stored topics after startup seeding.
const topicPoolSize = 50

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the agent server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running agent server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agent status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "agent.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "agent version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.LogLevel, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Refuse to double-start: probe the health endpoint first.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("agent is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("agent is already running on port %d", cfg.Port)
		return fmt.Errorf("server already running on port %d", cfg.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Build the generation pipeline.
	backend := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature)
	selector := topics.NewSelector(backend)
	comp := composer.New(backend)
	mailer := notify.NewMailer(notify.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Reviewer: cfg.ReviewerEmail,
		BaseURL:  cfg.PublicBaseURL,
	})
	approvals := approval.NewService(store, mailer)
	gen := generator.NewService(store, selector, comp, approvals, session.NewRegistry(), 0)

	// Top up the topic pool on first start.
	if err := seedTopicPool(ctx, store, selector); err != nil {
		return fmt.Errorf("seeding topic pool: %w", err)
	}

	registry := prometheus.NewRegistry()
	obs.MustRegister(registry)

	handler := api.NewHandler(api.Deps{
		Store:     store,
		Generator: gen,
		Approvals: approvals,
		Usage:     usage.NewAggregator(store),
		Gatherer:  registry,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Start the cron scheduler when configured.
	sched := scheduler.New(cfg.ScheduleCron, gen)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("agent listening", "addr", addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seedTopicPool fills storage up to topicPoolSize topics so fallback
// generation and the usage report always have material to work with.
func seedTopicPool(ctx context.Context, store *storage.Store, selector *topics.Selector) error {
	count, err := store.CountTopics()
	if err != nil {
		return err
	}
	if count >= topicPoolSize {
		return nil
	}

	seeds := selector.SeedPool(ctx, topicPoolSize-count)
	if err := store.SeedTopics(seeds); err != nil {
		return err
	}
	slog.Info("topic pool seeded", "added", len(seeds), "total", topicPoolSize)
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("agent is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop agent (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to agent (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Model", "%s", cfg.LLM.Model)
	printStatus("Reviewer", "%s", cfg.ReviewerEmail)
	if cfg.ScheduleCron != "" {
		printStatus("Schedule", "%s", cfg.ScheduleCron)
	} else {
		printStatus("Schedule", "disabled")
	}
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
