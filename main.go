package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/topi314/chapter-events/internal/xslog"
	"github.com/topi314/chapter-events/server"
	"github.com/topi314/chapter-events/server/web"
)

func main() {
	cfgPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	cfg, err := server.LoadConfig(*cfgPath)
	if err != nil {
		slog.Error("Failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	setupLogger(cfg)
	slog.Info("Starting chapter events...", slog.String("config", *cfgPath))
	slog.Debug("Config loaded", slog.String("config", cfg.String()))

	srv, err := server.New(cfg)
	if err != nil {
		slog.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srv.Start(web.Routes(srv))
	defer srv.Stop()

	slog.Info("Server started", slog.String("addr", cfg.Server.Addr))

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGTERM, syscall.SIGINT)
	<-s
}

func setupLogger(cfg server.Config) {
	opts := &slog.HandlerOptions{
		AddSource: cfg.Log.AddSource,
		Level:     cfg.Log.Level,
	}
	if cfg.Dev {
		opts.AddSource = true
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch cfg.Log.Format {
	case server.LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(xslog.NewFilterHandler(handler, xslog.DropCanceled)))
}
