package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kiryu-dev/duel-chess/internal/adapters/webapi"
	"github.com/kiryu-dev/duel-chess/internal/config"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/kiryu-dev/duel-chess/internal/usecase/arena"
	"github.com/kiryu-dev/duel-chess/pkg/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAddr     = ":8090"
	callbackTimeout = 5 * time.Second
)

// arena is a stand-alone duel resolver. It accepts duels from game servers and
// posts every verdict back to the callback the duel came with.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	addr := flag.String("addr", defaultAddr, "listen address")
	cfgPath := flag.String("config", "./config.yml", "path to config")
	flag.Parse()
	cfg, err := config.New(*cfgPath)
	if err != nil {
		logger.Fatal(err.Error())
	}

	var (
		callbacks = new(sync.Map)
		repo      = webapi.New("", "", nil, logger)
		rnd       = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	)
	sim := arena.New(cfg.Arena.FightDuration, func(req domain.DuelRequest, result domain.DuelResult) {
		v, ok := callbacks.LoadAndDelete(req.ID)
		if !ok {
			logger.Warn("no callback for duel", zap.String("duel", req.ID))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
		defer cancel()
		if err := repo.ReportResult(ctx, v.(string), result); err != nil {
			logger.Warn("failed to deliver verdict", zap.String("duel", req.ID), zap.Error(err))
		}
	}, rnd, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+webapi.DuelEndpoint, func(w http.ResponseWriter, r *http.Request) {
		req, err := utils.DecodeJson[domain.ArenaDuelRequest](r.Body)
		if err != nil || req.Duel.ID == "" || req.CallbackURL == "" {
			w.WriteHeader(http.StatusBadRequest)
			logger.Warn("bad duel request", zap.Error(err))
			return
		}
		if _, loaded := callbacks.LoadOrStore(req.Duel.ID, req.CallbackURL); loaded {
			w.WriteHeader(http.StatusConflict)
			return
		}
		_ = sim.RequestDuel(r.Context(), req.Duel)
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET "+webapi.HealthCheckEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := jsoniter.NewEncoder(w).Encode(domain.HealthCheckResponse{Status: "ok"}); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			logger.Warn(err.Error())
		}
	})
	srv := &http.Server{Addr: *addr, Handler: mux}

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
		logger.Info("starting arena: " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	errGroup.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := errGroup.Wait(); err != nil {
		logger.Info("arena stopped: " + err.Error())
	}
}
