package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Versifine/roam/internal/app"
	"github.com/Versifine/roam/internal/config"
	"github.com/Versifine/roam/internal/debug"
	"github.com/Versifine/roam/internal/event"
	"github.com/Versifine/roam/internal/level"
	"github.com/Versifine/roam/internal/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	closeLog, err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		File:        cfg.Logging.File,
		RawTerminal: cfg.Console.Enabled,
	})
	if err != nil {
		slog.Error("Failed to init logger", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	lvl, err := level.Load(cfg.LevelFile)
	if err != nil {
		slog.Error("Failed to load level", "path", cfg.LevelFile, "error", err)
		os.Exit(1)
	}

	bus := event.NewBus()
	game, err := app.New(*cfg, lvl, bus)
	if err != nil {
		slog.Error("Failed to assemble game", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return game.Run(ctx) })
	if cfg.Console.Enabled {
		console := debug.NewConsole(bus, game, cfg.Console.MovePulse)
		defer console.Close()
		// Start blocks on stdin, so it stays outside the group.
		go func() {
			if err := console.Start(ctx); err != nil {
				slog.Error("Debug console stopped", "error", err)
			}
			bus.Publish(event.EventQuit, nil)
		}()
	}

	if err := g.Wait(); err != nil {
		slog.Error("Roam stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Roam stopped", "frames", game.Loop().Frames())
}
