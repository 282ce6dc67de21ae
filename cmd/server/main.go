package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tyrowin/roomchat/internal/channel"
	"github.com/Tyrowin/roomchat/internal/config"
	"github.com/Tyrowin/roomchat/internal/logger"
	"github.com/Tyrowin/roomchat/internal/metrics"
	"github.com/Tyrowin/roomchat/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "roomchat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	manager := channel.NewManager(channel.Options{
		HistoryEnabled: cfg.HistoryEnabled,
		HistoryLimit:   cfg.HistoryLimit,
		Logger:         log.Named("channel"),
		Metrics:        m,
	})

	srv, err := server.New(cfg, manager, m, reg, log.Named("server"))
	if err != nil {
		return err
	}
	httpServer := server.CreateServer(cfg.Addr(), srv.Routes())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting roomchat",
		zap.String("addr", cfg.Addr()),
		zap.String("overflow_policy", cfg.OverflowPolicy),
		zap.Bool("history_enabled", cfg.HistoryEnabled))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv.Hub().Run()
		return nil
	})
	g.Go(func() error {
		return server.StartServer(httpServer, log)
	})
	g.Go(func() error {
		<-gctx.Done()
		httpErr := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, log)
		if err := srv.Hub().Shutdown(cfg.ShutdownTimeout); err != nil {
			log.Warn("hub shutdown incomplete", zap.Error(err))
		}
		return httpErr
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
