package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SayaAndy/photobox/config"
	"github.com/SayaAndy/photobox/internal/router"
	_ "github.com/SayaAndy/photobox/internal/router/handlers"
)

var (
	configPath = flag.String("c", "config.yaml", "Path to the configuration file (in YAML format)")
)

func main() {
	flag.Parse()

	cfg, err := config.InitConfig(*configPath)
	if err != nil {
		slog.Error("fail to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.SetLogLoggerLevel(cfg.LogLevel)
	slog.Info("starting photobox server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := router.NewRouter(ctx, cfg)
	if err != nil {
		slog.Error("fail to initialize router", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err = r.InitRoutes(); err != nil {
		slog.Error("fail to initialize routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down photobox server...")
		if err := r.Close(); err != nil {
			slog.Error("fail to shutdown gracefully", slog.String("error", err.Error()))
		}
	}()

	if err = r.Listen(cfg.Listen); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
