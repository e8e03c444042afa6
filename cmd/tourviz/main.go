package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/GoSim-25-26J-441/tourviz/internal/audio"
	"github.com/GoSim-25-26J-441/tourviz/internal/optimizer"
	"github.com/GoSim-25-26J-441/tourviz/internal/presets"
	"github.com/GoSim-25-26J-441/tourviz/internal/route"
	"github.com/GoSim-25-26J-441/tourviz/internal/runctl"
	"github.com/GoSim-25-26J-441/tourviz/internal/session"
	"github.com/GoSim-25-26J-441/tourviz/internal/tui"
	"github.com/GoSim-25-26J-441/tourviz/pkg/config"
	"github.com/GoSim-25-26J-441/tourviz/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tourviz:", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var apiURL string
	var logLevel string
	var preset string

	flag.StringVar(&configPath, "config", "", "path to config file (defaults are used when empty)")
	flag.StringVar(&apiURL, "api", "", "optimizer base URL (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.StringVar(&preset, "preset", "", "start in preset mode with the named preset")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if apiURL != "" {
		cfg.Optimizer.BaseURL = apiURL
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}

	// the screen belongs to the renderer, so logs go to a file
	log, closer, err := logger.OpenFile(logLevel, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.SetDefault(log)

	registry, err := presets.Load(cfg.Presets.File)
	if err != nil {
		return err
	}
	pollOpts, err := runctl.PollerOptionsFromConfig(cfg.Poll)
	if err != nil {
		return err
	}
	router, err := route.NewRouterFromConfig(cfg.Routing)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore()
	client := optimizer.NewClient(cfg.Optimizer.BaseURL)
	ctrl := runctl.NewController(store, client, registry, pollOpts, log.With("component", "runctl"))
	defer ctrl.Close()

	if preset != "" {
		if err := ctrl.LoadPreset(preset); err != nil {
			return err
		}
	}

	deriver := route.NewDeriver(store, router, log.With("component", "route"))
	go deriver.Run(ctx)

	if cfg.Audio.Enabled {
		chime := audio.NewChime(log.With("component", "audio"))
		defer chime.Close()
		go chime.Run(ctx, store)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	log.Info("tourviz started", "optimizer", client.BaseURL(), "routing", router != nil)
	err = tui.NewRenderer(screen, store, ctrl, log.With("component", "tui")).Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	stop()
	deriver.Wait()
	log.Info("tourviz stopped")
	return err
}
