package turn

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/kiryu-dev/duel-chess/internal/config"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type useCase struct {
	board      *domain.Board
	rules      domain.RulesUseCase
	duel       domain.DuelUseCase
	gameOver   domain.GameOverUseCase
	spawner    domain.SpawnerUseCase
	listener   domain.TurnListener
	teams      config.TeamsConfig
	bot        config.BotConfig
	rnd        *rand.Rand
	state      domain.TurnState
	botPending bool
	botWait    time.Duration
	logger     *zap.Logger
}

func New(board *domain.Board, rules domain.RulesUseCase, duel domain.DuelUseCase, gameOver domain.GameOverUseCase,
	spawner domain.SpawnerUseCase, listener domain.TurnListener, teams config.TeamsConfig, bot config.BotConfig,
	rnd *rand.Rand, logger *zap.Logger) *useCase {
	u := &useCase{
		board:    board,
		rules:    rules,
		duel:     duel,
		gameOver: gameOver,
		spawner:  spawner,
		listener: listener,
		teams:    teams,
		bot:      bot,
		rnd:      rnd,
		state:    domain.TurnState{Phase: domain.AwaitingMove, CurrentTeam: domain.TeamA},
		logger:   logger,
	}
	u.scheduleBot()
	return u
}

func (u *useCase) State() domain.TurnState {
	return u.state
}

// RequestMove applies a human move. Rejections leave the board and the turn untouched.
func (u *useCase) RequestMove(ctx context.Context, intent domain.MoveIntent) error {
	switch {
	case u.state.Phase == domain.GameOver:
		return ErrGameOver
	case u.state.Phase == domain.Busy || u.duel.Busy():
		return ErrBusy
	}
	piece := u.board.Get(intent.From)
	if piece == nil || piece.ID() != intent.PieceID {
		return errors.WithMessagef(ErrUnknownPiece, "piece '%s' at %s", intent.PieceID, intent.From)
	}
	if piece.Team() != u.state.CurrentTeam || !u.teams.IsHuman(piece.Team()) {
		return errors.WithMessagef(ErrNotYourTurn, "team %s", piece.Team())
	}
	if !u.rules.IsLegal(u.board, piece.Team(), piece.Type(), intent.From, intent.To) {
		u.logger.Debug("illegal move rejected",
			zap.Stringer("piece", piece), zap.Stringer("from", intent.From), zap.Stringer("to", intent.To))
		return errors.WithMessagef(ErrIllegalMove, "%s %s -> %s", piece.Type(), intent.From, intent.To)
	}
	return u.execute(ctx, piece, intent.From, intent.To)
}

func (u *useCase) execute(ctx context.Context, piece *domain.Piece, from, to domain.Cell) error {
	mover := piece.Team()
	target := u.board.Get(to)
	if target != nil && target.Team() != mover {
		u.state.Phase = domain.Busy
		err := u.duel.Start(ctx, piece, target, to, func(bool) {
			u.finishTurn(mover)
		})
		if err != nil {
			u.state.Phase = domain.AwaitingMove
			return errors.WithMessage(err, "start duel")
		}
		u.notifyTurn()
		return nil
	}
	if _, err := u.board.Move(piece, from, to); err != nil {
		u.logger.Warn("move left the board", zap.Stringer("piece", piece), zap.Error(err))
	}
	if u.listener != nil {
		u.listener.MoveApplied(domain.Move{Piece: piece, From: from, To: to})
	}
	u.finishTurn(mover)
	return nil
}

// finishTurn hands the turn to the other team, then checks for game over
// and wakes the bot if it is due.
func (u *useCase) finishTurn(mover domain.Team) {
	u.state = domain.TurnState{Phase: domain.AwaitingMove, CurrentTeam: mover.Other()}
	u.botPending = false
	if result, over := u.gameOver.Check(u.board); over {
		u.state.Phase = domain.GameOver
		u.logger.Info("game over", zap.Stringer("winner", result.Winner), zap.Bool("player won", result.PlayerWon))
		if u.listener != nil {
			u.listener.GameFinished(result)
		}
		u.notifyTurn()
		return
	}
	u.notifyTurn()
	u.scheduleBot()
}

func (u *useCase) scheduleBot() {
	if u.state.Phase != domain.AwaitingMove || u.teams.IsHuman(u.state.CurrentTeam) {
		return
	}
	u.botPending = true
	u.botWait = 0
}

func (u *useCase) notifyTurn() {
	if u.listener != nil {
		u.listener.TurnChanged(u.state)
	}
}

// Tick advances the outstanding duel and the bot's thinking time.
func (u *useCase) Tick(ctx context.Context, dt time.Duration) {
	u.duel.Tick(ctx, dt)
	if !u.botPending || u.state.Phase != domain.AwaitingMove {
		return
	}
	u.botWait += dt
	if u.botWait < u.bot.ThinkDelay {
		return
	}
	u.botPending = false
	u.playBot(ctx)
}

// Restart clears the board, re-seeds it and gives the first turn to team A.
// A running duel is never cancelled.
func (u *useCase) Restart(_ context.Context) error {
	if u.duel.Busy() {
		return ErrBusy
	}
	for _, p := range u.board.Clear() {
		p.Destroy()
	}
	u.gameOver.Reset()
	pieces := u.spawner.Spawn(u.board)
	u.state = domain.TurnState{Phase: domain.AwaitingMove, CurrentTeam: domain.TeamA}
	u.logger.Info("game restarted", zap.Int("pieces", len(pieces)))
	u.notifyTurn()
	u.scheduleBot()
	return nil
}
