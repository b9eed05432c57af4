package ws

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/kiryu-dev/duel-chess/pkg/utils"
	"go.uber.org/zap"
)

func (s *server) serveWs(w http.ResponseWriter, r *http.Request) {
	clientUuid := strings.TrimSpace(r.Header.Get(domain.ClientUuidHeader))
	if clientUuid == "" {
		clientUuid = uuid.NewString()
	}
	s.logger.Info("new connection", zap.String("client", clientUuid), zap.String("remote", r.RemoteAddr))
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(err.Error())
		return
	}
	client := newClient(conn, clientUuid)
	defer client.Close()
	if err := s.hub.Handle(r.Context(), client); err != nil {
		s.logger.Error(err.Error(), zap.String("client", clientUuid))
	}
}

func (s *server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := jsoniter.NewEncoder(w).Encode(s.hub.Health()); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		s.logger.Warn(err.Error())
	}
}

func (s *server) duelResult(w http.ResponseWriter, r *http.Request) {
	result, err := utils.DecodeJson[domain.DuelResult](r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.logger.Warn(err.Error())
		return
	}
	if result.ID == "" {
		w.WriteHeader(http.StatusBadRequest)
		s.logger.Warn("duel result without id")
		return
	}
	s.logger.Info("duel result received", zap.String("duel", result.ID), zap.Bool("attacker wins", result.AttackerWins))
	s.hub.ReportDuel(result)
	w.WriteHeader(http.StatusAccepted)
}
