package ws

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/kiryu-dev/duel-chess/internal/adapters/webapi"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/kiryu-dev/duel-chess/pkg/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeHub struct {
	mu      sync.Mutex
	reports []domain.DuelResult
	clients chan string
}

func (h *fakeHub) ReportDuel(result domain.DuelResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = append(h.reports, result)
}

func (h *fakeHub) ResolverFailed(string, error) {}

func (h *fakeHub) Run(context.Context, domain.DuelResolver) error {
	return nil
}

// Handle echoes every move back as a rejection until the client leaves.
func (h *fakeHub) Handle(_ context.Context, client domain.Client) error {
	h.clients <- client.Uuid()
	for {
		msg, err := client.ReadMessage()
		if err != nil {
			if errors.Is(err, domain.ErrConnectionClosed) {
				return nil
			}
			return err
		}
		move, err := utils.UnmarshalJson[domain.PlayerMovePayload](msg.Payload)
		if err != nil {
			return err
		}
		err = client.WriteMessage(domain.Message{
			Type:    domain.MoveRejected,
			Payload: domain.MoveRejectedPayload{PieceID: move.PieceID, From: move.From, Reason: "nope"},
		})
		if err != nil {
			return err
		}
	}
}

func (h *fakeHub) Health() domain.HealthCheckResponse {
	return domain.HealthCheckResponse{Status: "awaiting_move", Team: "A"}
}

func newTestServer(t *testing.T) (*fakeHub, *httptest.Server) {
	t.Helper()
	hub := &fakeHub{clients: make(chan string, 1)}
	s := New(":0", hub, zap.NewNop())
	srv := httptest.NewServer(s.srv.Handler)
	t.Cleanup(srv.Close)
	return hub, srv
}

func TestHealthCheck(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + webapi.HealthCheckEndpoint)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health domain.HealthCheckResponse
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "awaiting_move", health.Status)
	assert.Equal(t, "A", health.Team)
}

func TestDuelResult(t *testing.T) {
	hub, srv := newTestServer(t)
	body, err := jsoniter.Marshal(domain.DuelResult{ID: "d1", AttackerWins: true})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+webapi.DuelResultEndpoint, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	hub.mu.Lock()
	defer hub.mu.Unlock()
	require.Len(t, hub.reports, 1)
	assert.Equal(t, domain.DuelResult{ID: "d1", AttackerWins: true}, hub.reports[0])
}

func TestDuelResultRejectsGarbage(t *testing.T) {
	hub, srv := newTestServer(t)
	for _, body := range []string{"{", `{"AttackerWins":true}`} {
		resp, err := http.Post(srv.URL+webapi.DuelResultEndpoint, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	assert.Empty(t, hub.reports)
}

func TestGameSocket(t *testing.T) {
	hub, srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + gameEndpoint
	header := http.Header{}
	header.Set(domain.ClientUuidHeader, "player-1")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "player-1", <-hub.clients)

	from := domain.Cell{X: 1, Y: 1}
	require.NoError(t, conn.WriteJSON(domain.Message{
		Type:    domain.PlayerMove,
		Payload: domain.PlayerMovePayload{PieceID: "p", From: from, To: domain.Cell{X: 1, Y: 2}},
	}))
	var msg domain.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, domain.MoveRejected, msg.Type)
	rejected, err := utils.UnmarshalJson[domain.MoveRejectedPayload](msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, "p", rejected.PieceID)
	assert.Equal(t, from, rejected.From)
}

func TestGameSocketAssignsUuid(t *testing.T) {
	hub, srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + gameEndpoint
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.NotEmpty(t, <-hub.clients)
}
