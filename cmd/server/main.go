package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiryu-dev/duel-chess/internal/adapters/webapi"
	"github.com/kiryu-dev/duel-chess/internal/config"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/kiryu-dev/duel-chess/internal/transport/ws"
	"github.com/kiryu-dev/duel-chess/internal/usecase/arena"
	"github.com/kiryu-dev/duel-chess/internal/usecase/hub"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	cfgPath := flag.String("config", "./config.yml", "path to config")
	flag.Parse()
	cfg, err := config.New(*cfgPath)
	if err != nil {
		logger.Fatal(err.Error())
	}
	rnd := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	var (
		hub    = hub.New(cfg.GameConfig, cfg.Server.Tick, rnd, logger)
		server = ws.New(cfg.Server.Port, hub, logger)
	)
	resolver := newResolver(cfg.Arena, hub, rnd, logger)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	errGroup, ctx := errgroup.WithContext(context.Background())
	errGroup.Go(func() error {
		select {
		case s := <-sigChan:
			return errors.Errorf("captured signal: %v", s)
		case <-ctx.Done():
			return nil
		}
	})
	errGroup.Go(func() error {
		return hub.Run(ctx, resolver)
	})
	errGroup.Go(func() error {
		return server.ListenAndServe(ctx)
	})
	errGroup.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Info("failed to shutdown http server: " + err.Error())
		}
		return nil
	})
	if err := errGroup.Wait(); err != nil {
		logger.Info("gracefully shutting down the server: " + err.Error())
	}
}

// newResolver picks the remote arena when one is configured and the in-process
// simulator otherwise.
func newResolver(cfg config.ArenaConfig, hub domain.HubUseCase, rnd *rand.Rand, logger *zap.Logger) domain.DuelResolver {
	if cfg.URL == "" {
		logger.Info("no arena configured, simulating duels", zap.Duration("fight", cfg.FightDuration))
		return arena.New(cfg.FightDuration, func(_ domain.DuelRequest, result domain.DuelResult) {
			hub.ReportDuel(result)
		}, rand.New(rand.NewPCG(rnd.Uint64(), rnd.Uint64())), logger)
	}
	repo := webapi.New(cfg.URL, cfg.CallbackURL, hub, logger)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if health, err := repo.HealthCheck(ctx, cfg.URL); err != nil {
		logger.Warn("arena is not reachable yet", zap.String("arena", cfg.URL), zap.Error(err))
	} else {
		logger.Info("arena is up", zap.String("arena", cfg.URL), zap.String("status", health.Status))
	}
	return repo
}
