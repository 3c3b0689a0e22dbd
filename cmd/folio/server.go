package main

import (
	"context"
	"errors"
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

	"github.com/gofrs/flock"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/folio/internal/api"
	"github.com/kalambet/folio/internal/config"
	"github.com/kalambet/folio/internal/profile"
	"github.com/kalambet/folio/internal/seed"
	"github.com/kalambet/folio/internal/storage"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the folio HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withSeed, _ := cmd.Flags().GetBool("seed")
		return runServer(cmd.Context(), withSeed)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running folio server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show folio server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the folio MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Bool("seed", false, "seed the demo profiles before serving")
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "folio.pid")
}

func lockFilePath(dataDir string) string {
	return filepath.Join(dataDir, "folio.lock")
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// acquireServeLock takes the per-data-dir lock held for the lifetime of a
// serve process. A second serve against the same data dir fails fast.
func acquireServeLock(dataDir string) (func(), error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	l := flock.New(lockFilePath(dataDir))
	locked, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring serve lock: %w", err)
	}
	if !locked {
		if pid, pidErr := readPIDFile(pidFilePath(dataDir)); pidErr == nil {
			return nil, fmt.Errorf("folio is already running (PID %d)", pid)
		}
		return nil, fmt.Errorf("folio is already running (lock: %s)", l.Path())
	}
	return func() { _ = l.Unlock() }, nil
}

func openStore(cfg config.Config) (*storage.Store, error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, nil
}

func closeStore(store *storage.Store) {
	if err := store.Close(); err != nil {
		slog.Warn("closing storage", "error", err)
	}
}

func runServer(ctx context.Context, withSeed bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)
	slog.Info("starting folio", "version", version)

	unlock, err := acquireServeLock(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer unlock()

	pidPath := pidFilePath(cfg.Storage.DataDir)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	profiles := profile.NewManager(store)

	if withSeed || cfg.Seed.OnStart {
		inputs, err := seed.Default()
		if err != nil {
			return fmt.Errorf("loading demo profiles: %w", err)
		}
		if _, err := seed.Run(ctx, profiles, inputs, slog.Default()); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}

	handler := api.NewHandler(api.Deps{
		Profiles:   profiles,
		CORSOrigin: cfg.Server.CORSOrigin,
		Logger:     slog.Default(),
		Ping:       store.Ping,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("folio listening", "addr", srv.Addr, "cors_origin", cfg.Server.CORSOrigin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runMCP(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Profiles: profile.NewManager(store),
		Version:  version,
	})
	slog.Info("MCP server started (stdio transport)")

	err = server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("folio is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		os.Remove(pidPath)
		return fmt.Errorf("stopping folio (PID %d): %w", pid, err)
	}

	printSuccess("Sent stop signal to folio (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := newClient(cfg.Server.BaseURL(), &http.Client{Timeout: 2 * time.Second})
	if err := client.health(ctx); err != nil {
		printStatus("Server", "stopped")
	} else {
		printStatus("Server", "running at %s", cfg.Server.BaseURL())
		if profiles, err := client.listProfiles(ctx); err == nil {
			printStatus("Profiles", "%d", len(profiles))
		}
	}

	printStatus("CORS origin", "%s", cfg.Server.CORSOrigin)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
