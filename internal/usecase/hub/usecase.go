package hub

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/kiryu-dev/duel-chess/internal/config"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/kiryu-dev/duel-chess/internal/usecase/duel"
	"github.com/kiryu-dev/duel-chess/internal/usecase/gameover"
	"github.com/kiryu-dev/duel-chess/internal/usecase/rules"
	"github.com/kiryu-dev/duel-chess/internal/usecase/spawner"
	"github.com/kiryu-dev/duel-chess/internal/usecase/turn"
	"github.com/kiryu-dev/duel-chess/pkg/utils"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	commandBufSize = 16
	startingStatus = "starting"
)

type moveRequest struct {
	clientUuid string
	intent     domain.MoveIntent
}

type resolverFailure struct {
	duelID string
	err    error
}

// useCase is one game session. Everything below the channels is owned by the
// goroutine running Run; other goroutines talk to it only through channels
// and read its published status through atomics.
type useCase struct {
	cfg         config.GameConfig
	tick        time.Duration
	rnd         *rand.Rand
	joinChan    chan domain.Client
	leaveChan   chan string
	moveChan    chan moveRequest
	restartChan chan string
	reportChan  chan domain.DuelResult
	failChan    chan resolverFailure
	done        chan struct{}

	clients map[string]domain.Client
	board   *domain.Board
	turn    domain.TurnUseCase
	duel    domain.DuelUseCase
	result  *domain.GameResult
	dirty   bool

	status *atomic.String
	team   *atomic.String
	busy   *atomic.Bool
	logger *zap.Logger
}

func New(cfg config.GameConfig, tick time.Duration, rnd *rand.Rand, logger *zap.Logger) *useCase {
	return &useCase{
		cfg:         cfg,
		tick:        tick,
		rnd:         rnd,
		joinChan:    make(chan domain.Client, commandBufSize),
		leaveChan:   make(chan string, commandBufSize),
		moveChan:    make(chan moveRequest, commandBufSize),
		restartChan: make(chan string, commandBufSize),
		reportChan:  make(chan domain.DuelResult, commandBufSize),
		failChan:    make(chan resolverFailure, commandBufSize),
		done:        make(chan struct{}),
		clients:     make(map[string]domain.Client),
		status:      atomic.NewString(startingStatus),
		team:        atomic.NewString(""),
		busy:        atomic.NewBool(false),
		logger:      logger,
	}
}

// Run builds the game core and drives it until ctx is cancelled.
func (u *useCase) Run(ctx context.Context, resolver domain.DuelResolver) error {
	defer close(u.done)
	u.board = domain.NewBoard(u.cfg.Board.Rows, u.cfg.Board.Columns)
	u.duel = duel.New(u.board, resolver, u, u.cfg.Duel, u.rnd, u.logger)
	u.turn = turn.New(u.board, rules.New(), u.duel,
		gameover.New(u.cfg.Teams, u.logger),
		spawner.New(u.cfg.Spawn, u.rnd, u.logger),
		u, u.cfg.Teams, u.cfg.Bot, u.rnd, u.logger)
	if err := u.turn.Restart(ctx); err != nil {
		return errors.WithMessage(err, "start game")
	}
	ticker := time.NewTicker(u.tick)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			u.turn.Tick(ctx, now.Sub(last))
			last = now
		case client := <-u.joinChan:
			u.clients[client.Uuid()] = client
			u.logger.Info("client joined", zap.String("client", client.Uuid()), zap.Int("clients", len(u.clients)))
			u.send(client, domain.Message{Type: domain.Snapshot, Payload: u.snapshot()})
		case clientUuid := <-u.leaveChan:
			delete(u.clients, clientUuid)
			u.logger.Info("client left", zap.String("client", clientUuid))
		case req := <-u.moveChan:
			u.handleMove(ctx, req)
		case clientUuid := <-u.restartChan:
			u.handleRestart(ctx, clientUuid)
		case result := <-u.reportChan:
			if err := u.duel.Report(result); err != nil {
				u.logger.Debug("duel report dropped", zap.Error(err))
			}
		case f := <-u.failChan:
			u.duel.ResolverFailed(f.duelID, f.err)
		}
		u.flush()
	}
}

func (u *useCase) handleMove(ctx context.Context, req moveRequest) {
	err := u.turn.RequestMove(ctx, req.intent)
	if err == nil {
		return
	}
	u.logger.Debug("move rejected", zap.String("client", req.clientUuid), zap.Error(err))
	client, ok := u.clients[req.clientUuid]
	if !ok {
		return
	}
	u.send(client, domain.Message{
		Type: domain.MoveRejected,
		Payload: domain.MoveRejectedPayload{
			PieceID: req.intent.PieceID,
			From:    req.intent.From,
			Reason:  err.Error(),
		},
	})
}

func (u *useCase) handleRestart(ctx context.Context, clientUuid string) {
	if err := u.turn.Restart(ctx); err != nil {
		u.logger.Warn("restart refused", zap.String("client", clientUuid), zap.Error(err))
		return
	}
	u.result = nil
	u.dirty = true
}

func (u *useCase) snapshot() domain.SnapshotPayload {
	opts := make([]domain.SnapshotOption, 0, 1)
	if u.result != nil {
		opts = append(opts, domain.WithGameResult(*u.result))
	}
	return domain.NewSnapshot(u.board, u.turn.State(), opts...)
}

func (u *useCase) flush() {
	if !u.dirty {
		return
	}
	u.dirty = false
	u.broadcast(domain.Message{Type: domain.Snapshot, Payload: u.snapshot()})
}

func (u *useCase) broadcast(msg domain.Message) {
	for _, client := range u.clients {
		u.send(client, msg)
	}
}

func (u *useCase) send(client domain.Client, msg domain.Message) {
	if err := client.WriteMessage(msg); err != nil {
		u.logger.Warn("dropping client", zap.String("client", client.Uuid()), zap.Error(err))
		delete(u.clients, client.Uuid())
	}
}

func (u *useCase) MoveApplied(domain.Move) {
	u.dirty = true
}

func (u *useCase) TurnChanged(state domain.TurnState) {
	u.dirty = true
	u.status.Store(state.Phase.String())
	u.team.Store(state.CurrentTeam.String())
	u.busy.Store(state.Phase == domain.Busy)
}

func (u *useCase) GameFinished(result domain.GameResult) {
	u.result = &result
	u.broadcast(domain.Message{
		Type:    domain.GameFinished,
		Payload: domain.GameFinishedPayload{Winner: result.Winner, PlayerWon: result.PlayerWon},
	})
}

func (u *useCase) DuelBegan(req domain.DuelRequest) {
	u.broadcast(domain.Message{Type: domain.DuelBegin, Payload: domain.DuelBeginPayload{Request: req}})
}

func (u *useCase) DuelEnded(req domain.DuelRequest, attackerWins bool) {
	u.dirty = true
	u.broadcast(domain.Message{
		Type:    domain.DuelEnd,
		Payload: domain.DuelEndPayload{ID: req.ID, Target: req.Target, AttackerWins: attackerWins},
	})
}

// Handle serves one client until its connection closes.
func (u *useCase) Handle(ctx context.Context, client domain.Client) error {
	if !enqueue(ctx, u.done, u.joinChan, client) {
		return nil
	}
	defer enqueue(context.Background(), u.done, u.leaveChan, client.Uuid())
	for {
		msg, err := client.ReadMessage()
		switch {
		case errors.Is(err, domain.ErrConnectionClosed):
			return nil
		case err != nil:
			return errors.WithMessage(err, "read client message")
		}
		switch msg.Type {
		case domain.PlayerMove:
			payload, err := utils.UnmarshalJson[domain.PlayerMovePayload](msg.Payload)
			if err != nil {
				u.logger.Warn("malformed move", zap.String("client", client.Uuid()), zap.Error(err))
				continue
			}
			req := moveRequest{
				clientUuid: client.Uuid(),
				intent:     domain.MoveIntent{PieceID: payload.PieceID, From: payload.From, To: payload.To},
			}
			if !enqueue(ctx, u.done, u.moveChan, req) {
				return nil
			}
		case domain.Restart:
			if !enqueue(ctx, u.done, u.restartChan, client.Uuid()) {
				return nil
			}
		default:
			u.logger.Warn("unexpected message type", zap.String("client", client.Uuid()), zap.Any("type", msg.Type))
		}
	}
}

func (u *useCase) ReportDuel(result domain.DuelResult) {
	enqueue(context.Background(), u.done, u.reportChan, result)
}

func (u *useCase) ResolverFailed(duelID string, err error) {
	enqueue(context.Background(), u.done, u.failChan, resolverFailure{duelID: duelID, err: err})
}

func (u *useCase) Health() domain.HealthCheckResponse {
	return domain.HealthCheckResponse{
		Status: u.status.Load(),
		Team:   u.team.Load(),
		Busy:   u.busy.Load(),
	}
}

func enqueue[T any](ctx context.Context, done <-chan struct{}, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	case <-done:
		return false
	}
}
