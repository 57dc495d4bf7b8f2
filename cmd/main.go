package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tokenrank/internal/config"
	"tokenrank/internal/hub"
	"tokenrank/internal/httpapi"
	"tokenrank/internal/ingest"
	"tokenrank/internal/leaderboard"
	"tokenrank/internal/logging"
	"tokenrank/internal/metrics"
	"tokenrank/internal/rpc"
	"tokenrank/internal/store"
	"tokenrank/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("fatal error", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	redisStore := store.NewRedis(redisAddr, cfg.Redis.Password, cfg.Redis.DB, cfg.Leaderboard.WindowSize)
	if err := redisStore.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisStore.Close()

	pgStore, err := store.NewPostgres(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pgStore.Close()

	tokens := hub.NewTokens()
	orders := hub.NewOrders()
	newContent := hub.NewNewContent()

	engine := leaderboard.New(pgStore, redisStore, orders, newContent, cfg.Leaderboard.WindowSize, m, log)
	log.Info("seeding leaderboard windows")
	if err := engine.Initialize(ctx); err != nil {
		return fmt.Errorf("leaderboard initialize: %w", err)
	}

	ingestLoop := ingest.New(pgStore.Pool(), pgStore, redisStore, engine, tokens, newContent, m, log)

	rpcDeps := rpc.Deps{
		Postgres:   pgStore,
		Redis:      redisStore,
		Engine:     engine,
		Tokens:     tokens,
		Orders:     orders,
		NewContent: newContent,
		Metrics:    m,
		Log:        log,
	}
	api := httpapi.New(pgStore, m, log)
	httpServer := transport.New(transport.Config{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, rpcDeps, api, log)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ingestLoop.Run(ctx)
	}()

	go func() {
		defer wg.Done()
		collectSystemMetrics(ctx, m)
	}()

	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- httpServer.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-httpErrCh:
		if err != nil {
			log.Error("http server exited with error", zap.Error(err))
		}
	}

	cancel()
	wg.Wait()
	return nil
}

func collectSystemMetrics(ctx context.Context, m *metrics.Metrics) {
	sys := metrics.NewSystemMetrics()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sys.Update()
			m.ReportSystem(sys)
		}
	}
}
