package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/1broseidon/sphereland/internal/config"
	"github.com/1broseidon/sphereland/internal/daemon"
	"github.com/1broseidon/sphereland/internal/hostlink"
	"github.com/1broseidon/sphereland/internal/ipc"
	"github.com/1broseidon/sphereland/internal/platform"
	"github.com/1broseidon/sphereland/internal/registry"
	"github.com/1broseidon/sphereland/internal/surface"
)

func runDaemon(args []string) int {
	fs := newFlagSet("run", "Usage: sphereland run [--config PATH] [--log-level LEVEL]\n\nConnect to the spatial host and present its windows.")
	cfgPath := fs.StringP("config", "c", "", "Config file path (default: ~/.config/sphereland/config.yaml)")
	logLevel := fs.String("log-level", "", "Override log_level (debug, info, warning, error)")
	if rc, ok := parseFlags(fs, args); !ok {
		return rc
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	load := func() (*config.Config, error) {
		res, err := loadConfig(*cfgPath)
		if err != nil {
			return nil, err
		}
		if *logLevel != "" {
			res.Config.LogLevel = *logLevel
			if err := res.Config.Validate(); err != nil {
				return nil, err
			}
		}
		return res.Config, nil
	}

	cfg, err := load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, load, level, logger); err != nil {
		logger.Error("daemon exited", "error", err)
		return 1
	}
	return 0
}

// serve runs the daemon until ctx is cancelled or the host link drops.
func serve(ctx context.Context, cfg *config.Config, load func() (*config.Config, error), level *slog.LevelVar, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	arena := platform.NewArena()
	reg := registry.New(registry.Config{
		Scene: arena,
		Surface: surface.Options{
			Thickness: cfg.PanelThickness,
			Resource:  cfg.PanelResource,
			Logger:    logger,
		},
		Logger: logger,
	})
	loop := daemon.NewLoop(daemon.LoopConfig{QueueSize: cfg.QueueSize, Logger: logger}, reg)

	link, err := hostlink.Dial(ctx, cfg.HostSocket, hostlink.Config{Logger: logger})
	if err != nil {
		return err
	}
	defer link.Close()
	arena.OnChange(link.Mirror)
	logger.Info("connected to host", "socket", cfg.HostSocket, "client_id", link.ClientID())

	ipcServer, err := ipc.NewServer(ipc.ServerConfig{
		SocketPath: cfg.ControlSocket,
		Config:     cfg,
		Load:       load,
		Logger:     logger,
	}, loop)
	if err != nil {
		return err
	}
	if err := ipcServer.Start(); err != nil {
		return err
	}
	defer ipcServer.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()

	if cfg.ReconcileInterval > 0 {
		reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
			Interval: cfg.ReconcileInterval,
			Logger:   logger,
		}, link.RequestSessions)
		wg.Add(1)
		go func() {
			defer wg.Done()
			reconciler.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ipcServer.Reloaded():
				newCfg := ipcServer.GetConfig()
				level.Set(newCfg.SlogLevel())
				logger.Info("config reloaded", "log_level", newCfg.LogLevel)
				if newCfg.PanelThickness != cfg.PanelThickness || newCfg.PanelResource != cfg.PanelResource {
					logger.Warn("panel settings apply after restart")
				}
			}
		}
	}()

	err = link.Serve(ctx, loop)
	cancel()
	if err == nil || errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	if errors.Is(err, hostlink.ErrClosed) {
		return fmt.Errorf("host closed the connection: %w", err)
	}
	return err
}
