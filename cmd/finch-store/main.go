// ABOUTME: Entry point for the finch-store conversation retention daemon
// ABOUTME: Runs the auto-purge sweep on a schedule and serves metrics

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/finch-store/internal/config"
	"github.com/2389/finch-store/internal/deleter"
	"github.com/2389/finch-store/internal/notify"
	"github.com/2389/finch-store/internal/retention"
	"github.com/2389/finch-store/internal/store"
	"github.com/2389/finch-store/internal/sweep"
	"github.com/2389/finch-store/internal/telephony"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
   __ _            _               _
  / _(_)_ __   ___| |__        ___| |_ ___  _ __ ___
 | |_| | '_ \ / __| '_ \ _____/ __| __/ _ \| '__/ _ \
 |  _| | | | | (__| | | |_____\__ \ || (_) | | |  __/
 |_| |_|_| |_|\___|_| |_|     |___/\__\___/|_|  \___|
`

// getConfigPath returns the path to the finch-store config file.
// Priority: FINCH_CONFIG env var > XDG_CONFIG_HOME/finch/store.yaml > ~/.config/finch/store.yaml
func getConfigPath() string {
	if envPath := os.Getenv("FINCH_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "store.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "finch", "store.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: finch-store <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the retention daemon")
		fmt.Println("  sweep   Run one auto-purge sweep and exit")
		fmt.Println("  init    Write a starter config file")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "sweep":
		err = runSweep(ctx)
	case "init":
		err = runInit()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Telephony: %s\n", cfg.Telephony.Path)
	green.Print("    ▶ ")
	fmt.Printf("Schedule:  %s\n", cfg.Retention.Schedule)
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   http://%s%s\n", cfg.Metrics.Addr, cfg.Metrics.Path)
	}
	fmt.Println()

	logger.Info("starting finch-store",
		"config", configPath,
		"database", cfg.Database.Path,
		"telephony", cfg.Telephony.Path,
		"schedule", cfg.Retention.Schedule,
	)

	// Open the local conversation store
	convStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening conversation store: %w", err)
	}
	defer convStore.Close()

	// Open the telephony provider store
	provider, err := telephony.NewSQLiteProvider(cfg.Telephony.Path)
	if err != nil {
		return fmt.Errorf("opening telephony store: %w", err)
	}
	defer provider.Close()

	// Wire up the deletion pipeline
	broadcaster := notify.NewBroadcaster(logger)
	defer broadcaster.Close()

	policy := retention.NewPolicy(convStore, cfg.Retention.ResolvedDefaultDays(), logger)
	del := deleter.New(convStore, provider, policy, broadcaster, logger)

	var metrics *sweep.Metrics
	if cfg.Metrics.Enabled {
		metrics = sweep.NewMetrics(prometheus.DefaultRegisterer)
	}
	sweeper := sweep.NewSweeper(convStore, del, policy, broadcaster, metrics, logger)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics, logger)
	}

	// Scheduled sweeps
	scheduler := sweep.NewScheduler(sweeper, cfg.Retention.Schedule)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting sweep scheduler: %w", err)
	}
	defer scheduler.Stop()

	if next := scheduler.NextRun(); next != nil {
		logger.Info("next scheduled sweep", "at", next.Format(time.RFC3339))
	}

	// Config watcher: a changed retention default takes effect on the next
	// policy read, and a config change triggers an immediate sweep so a
	// shortened window is applied right away.
	watcher, err := config.NewWatcher(configPath, 0)
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	go func() {
		err := watcher.Watch(ctx, func(newCfg *config.Config) {
			policy.SetDefaultDays(newCfg.Retention.ResolvedDefaultDays())
			if _, err := sweeper.Run(ctx, time.Now()); err != nil {
				logger.Error("post-reload sweep failed", "error", err)
			}
		})
		if err != nil {
			logger.Error("config watcher exited", "error", err)
		}
	}()

	// Startup sweep catches conversations that expired while the daemon
	// was down.
	if cfg.Retention.ResolvedSweepOnBoot() {
		if _, err := sweeper.Run(ctx, time.Now()); err != nil {
			logger.Error("startup sweep failed", "error", err)
		}
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// startMetricsServer serves the Prometheus endpoint in the background and
// shuts it down when ctx is cancelled.
func startMetricsServer(ctx context.Context, cfg config.MetricsConfig, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	go func() {
		logger.Info("metrics server listening", "addr", cfg.Addr, "path", cfg.Path)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

// runSweep performs a single sweep and prints the result.
func runSweep(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	convStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening conversation store: %w", err)
	}
	defer convStore.Close()

	provider, err := telephony.NewSQLiteProvider(cfg.Telephony.Path)
	if err != nil {
		return fmt.Errorf("opening telephony store: %w", err)
	}
	defer provider.Close()

	broadcaster := notify.NewBroadcaster(logger)
	defer broadcaster.Close()

	policy := retention.NewPolicy(convStore, cfg.Retention.ResolvedDefaultDays(), logger)
	del := deleter.New(convStore, provider, policy, broadcaster, logger)
	sweeper := sweep.NewSweeper(convStore, del, policy, broadcaster, nil, logger)

	result, err := sweeper.Run(ctx, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("purged: %d\nremaining: %d\nfailed: %d\n",
		result.Purged, result.Remaining, result.Failed)
	return nil
}

// runInit writes a starter config file with commented defaults.
func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists: %s", configPath)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			dataDir = "data"
		} else {
			dataDir = filepath.Join(homeDir, ".local", "share")
		}
	}
	dataPath := filepath.Join(dataDir, "finch")

	configContent := fmt.Sprintf(`# finch-store configuration
# Generated by finch-store init

database:
  path: "%s"

telephony:
  path: "%s"

retention:
  default_days: 14       # -1 disables auto purge, 0 purges immediately
  schedule: "0 3 * * *"  # daily at 3 AM
  sweep_on_boot: true

logging:
  level: "info"
  format: "text"

metrics:
  enabled: false
  addr: "127.0.0.1:9090"
  path: "/metrics"
`,
		filepath.Join(dataPath, "conversations.db"),
		filepath.Join(dataPath, "telephony.db"))

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Config written to %s\n", configPath)
	fmt.Println("\nTo start the daemon:")
	fmt.Println("  finch-store serve")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
