// Command nudge runs the session-scoped hint cache server and its
// companion CLI, grounded on
// _examples/original_source/src/nudge/cli.py's intent (serve/status/stop)
// and _examples/ipiton-alert-history-service/go-app/cmd/server/main.go's
// cobra + signal-handling shape.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipeerbhai/nudge/internal/config"
	"github.com/ipeerbhai/nudge/internal/guard"
	"github.com/ipeerbhai/nudge/internal/lock"
	"github.com/ipeerbhai/nudge/internal/matcher"
	"github.com/ipeerbhai/nudge/internal/proxy"
	"github.com/ipeerbhai/nudge/internal/rpcserver"
	"github.com/ipeerbhai/nudge/internal/scorer"
	"github.com/ipeerbhai/nudge/internal/store"
	"github.com/ipeerbhai/nudge/internal/toolchannel"
	"github.com/ipeerbhai/nudge/pkg/logger"
	metricspkg "github.com/ipeerbhai/nudge/pkg/metrics"
)

var (
	configPath string
	jsonOutput bool
	servePort  int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nudge",
		Short: "Session-scoped hint cache for coding agents",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the nudge server, electing PRIMARY or PROXY",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP server port (0 = use config default)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether a nudge server is running",
		RunE:  runStatus,
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running nudge server",
		RunE:  runStop,
	}

	root.AddCommand(serveCmd, statusCmd, stopCmd)
	return root
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	log := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	serverLock, err := lock.New()
	if err != nil {
		return fmt.Errorf("init lock: %w", err)
	}

	running, existingPort := serverLock.CheckRunning()
	metrics := metricspkg.NewRegistry("nudge", roleSubsystem(running))

	var dispatcher rpcserver.Dispatcher
	var releaseLock func()
	var primaryStore *store.Store

	if running {
		log.Info("another server is running, starting as PROXY", "primary_port", existingPort)
		dispatcher = proxy.New(existingPort)
	} else {
		limits := store.Limits{
			MaxComponents:        cfg.Store.MaxComponents,
			MaxHintsPerComponent: cfg.Store.MaxHintsPerComponent,
			MaxTotalHints:        cfg.Store.MaxTotalHints,
		}
		primaryStore = store.New(limits, log, metrics)
		g := guard.New(cfg.Guard.SecretGuardEnabled)
		m := matcher.New(0)
		sc := scorer.New(m)
		dispatcher = toolchannel.New(primaryStore, g, sc, log)
	}

	srv := rpcserver.New(dispatcher, metrics, log, cfg.Server.RequestTimeout)
	rl := rpcserver.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, metrics)

	actualPort, err := srv.Start(cfg.Server.Port, cfg.Server.MaxPortAttempts, rl)
	if err != nil {
		return fmt.Errorf("bind http server: %w", err)
	}

	if !running {
		if err := serverLock.Acquire(actualPort); err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		releaseLock = serverLock.Release
		log.Info("PRIMARY server started", "port", actualPort, "pid", os.Getpid())
		fmt.Printf("Nudge PRIMARY server started on port %d (PID: %d)\n", actualPort, os.Getpid())
	} else {
		log.Info("PROXY server started", "port", actualPort, "pid", os.Getpid())
		fmt.Printf("Nudge PROXY started on port %d, forwarding to %d (PID: %d)\n", actualPort, existingPort, os.Getpid())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if primaryStore != nil && cfg.Server.EvictionInterval > 0 {
		go runEvictionLoop(ctx, primaryStore, log, cfg.Server.EvictionInterval)
	}

	err = srv.Serve(ctx, cfg.Server.GracefulShutdownTimeout)
	if releaseLock != nil {
		releaseLock()
	}
	log.Info("server stopped")
	return err
}

// runEvictionLoop sweeps expired hints on a fixed cadence, the "periodic
// cadence" option spec.md §5 allows alongside opportunistic eviction on
// read. It stops when ctx is canceled.
func runEvictionLoop(ctx context.Context, st *store.Store, log *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.EvictExpired(); n > 0 {
				log.Debug("evicted expired hints", "count", n)
			}
		}
	}
}

func roleSubsystem(proxyMode bool) string {
	if proxyMode {
		return "proxy"
	}
	return "primary"
}

func runStatus(cmd *cobra.Command, args []string) error {
	serverLock, err := lock.New()
	if err != nil {
		return err
	}
	pid := serverLock.GetRunningPID()

	result := map[string]any{"running": pid != 0}
	if pid != 0 {
		result["pid"] = pid
	}
	printResult(result)
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	serverLock, err := lock.New()
	if err != nil {
		return err
	}
	pid := serverLock.GetRunningPID()
	if pid == 0 {
		printResult(map[string]any{"stopped": false, "message": "No server running"})
		return nil
	}

	stopped, err := serverLock.StopServer()
	if err != nil {
		return err
	}
	if stopped {
		printResult(map[string]any{"stopped": true, "pid": pid})
	} else {
		printResult(map[string]any{"stopped": false, "message": "Failed to stop server"})
	}
	return nil
}

func printResult(result map[string]any) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}

	if running, ok := result["running"]; ok {
		if running.(bool) {
			fmt.Printf("Nudge server is running (PID: %v)\n", result["pid"])
		} else {
			fmt.Println("Nudge server is not running")
		}
		return
	}
	if stopped, ok := result["stopped"]; ok {
		if stopped.(bool) {
			fmt.Printf("Server stopped (PID: %v)\n", result["pid"])
		} else {
			fmt.Printf("%v\n", result["message"])
		}
		return
	}
}
