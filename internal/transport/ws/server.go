package ws

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/kiryu-dev/duel-chess/internal/adapters/webapi"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const gameEndpoint = "/game"

type server struct {
	srv      *http.Server
	hub      domain.HubUseCase
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func New(port string, hub domain.HubUseCase, logger *zap.Logger) *server {
	s := &server{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
	s.srv = &http.Server{Addr: port, Handler: s.routes()}
	return s
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *server) ListenAndServe(_ context.Context) error {
	s.logger.Info("starting listening address: " + s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithMessage(err, "listen and serve")
	}
	return nil
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(gameEndpoint, s.serveWs)
	mux.HandleFunc("GET /health", s.healthCheck)
	mux.HandleFunc("POST "+webapi.DuelResultEndpoint, s.duelResult)
	return mux
}
