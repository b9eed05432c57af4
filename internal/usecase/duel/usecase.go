package duel

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/kiryu-dev/duel-chess/internal/config"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type stage byte

const (
	requested = stage(iota)
	awaitingVerdict
	resolved
	applied
)

type activeDuel struct {
	req          domain.DuelRequest
	attacker     *domain.Piece
	defender     *domain.Piece
	stage        stage
	elapsed      time.Duration
	downFor      time.Duration
	held         time.Duration
	resolverDown bool
	attackerWins bool
	fallback     bool
	onDone       func(attackerWins bool)
}

type useCase struct {
	board    *domain.Board
	resolver domain.DuelResolver
	listener domain.DuelListener
	cfg      config.DuelConfig
	roll     func(atk, def domain.PieceType) bool
	active   *activeDuel
	logger   *zap.Logger
}

func New(board *domain.Board, resolver domain.DuelResolver, listener domain.DuelListener,
	cfg config.DuelConfig, rnd *rand.Rand, logger *zap.Logger) *useCase {
	weights := cfg.Weights
	if weights == nil {
		weights = domain.DefaultWeights()
	}
	return &useCase{
		board:    board,
		resolver: resolver,
		listener: listener,
		cfg:      cfg,
		roll: func(atk, def domain.PieceType) bool {
			return Roll(rnd, weights, atk, def)
		},
		logger: logger,
	}
}

func (u *useCase) Busy() bool {
	return u.active != nil
}

// Start opens a duel over target. The board is left untouched until the
// verdict is applied on a later Tick.
func (u *useCase) Start(ctx context.Context, attacker, defender *domain.Piece, target domain.Cell,
	onDone func(attackerWins bool)) error {
	if u.active != nil {
		return ErrDuelInProgress
	}
	if attacker == nil || defender == nil {
		return ErrInvalidDuel
	}
	d := &activeDuel{
		req: domain.DuelRequest{
			ID:           uuid.NewString(),
			AttackerID:   attacker.ID(),
			AttackerType: attacker.Type(),
			AttackerTeam: attacker.Team(),
			DefenderID:   defender.ID(),
			DefenderType: defender.Type(),
			DefenderTeam: defender.Team(),
			Target:       target,
		},
		attacker: attacker,
		defender: defender,
		stage:    requested,
		onDone:   onDone,
	}
	u.active = d
	u.logger.Info("duel requested",
		zap.String("duel", d.req.ID),
		zap.Stringer("attacker", attacker),
		zap.Stringer("defender", defender),
		zap.Stringer("target", target))
	if u.listener != nil {
		u.listener.DuelBegan(d.req)
	}
	// a resolver may report from within RequestDuel
	d.stage = awaitingVerdict
	if err := u.request(ctx, d.req); err != nil {
		d.resolverDown = true
		u.logger.Warn("duel resolver unavailable, falling back to roll",
			zap.String("duel", d.req.ID), zap.Error(err))
	}
	return nil
}

func (u *useCase) request(ctx context.Context, req domain.DuelRequest) error {
	if u.resolver == nil {
		return errResolverMissing
	}
	if err := u.resolver.RequestDuel(ctx, req); err != nil {
		return errors.WithMessage(err, "request duel")
	}
	return nil
}

// Report accepts the first verdict for the active duel; later ones are ignored.
func (u *useCase) Report(result domain.DuelResult) error {
	d := u.active
	if d == nil || d.req.ID != result.ID {
		u.logger.Info("verdict for unknown duel ignored", zap.String("duel", result.ID))
		return errors.WithMessagef(ErrUnknownDuel, "duel '%s'", result.ID)
	}
	if d.stage != awaitingVerdict {
		u.logger.Info("duplicate verdict ignored",
			zap.String("duel", result.ID), zap.Bool("attacker wins", result.AttackerWins))
		return errors.WithMessagef(ErrDuplicateVerdict, "duel '%s'", result.ID)
	}
	d.attackerWins = result.AttackerWins
	d.stage = resolved
	u.logger.Info("verdict accepted", zap.String("duel", result.ID), zap.Bool("attacker wins", result.AttackerWins))
	return nil
}

// ResolverFailed switches a pending duel to the fallback roll after the
// configured fallback delay.
func (u *useCase) ResolverFailed(duelID string, err error) {
	d := u.active
	if d == nil || d.req.ID != duelID || d.stage != awaitingVerdict {
		return
	}
	d.resolverDown = true
	u.logger.Warn("duel resolver failed", zap.String("duel", duelID), zap.Error(err))
}

func (u *useCase) Tick(_ context.Context, dt time.Duration) {
	d := u.active
	if d == nil {
		return
	}
	switch d.stage {
	case awaitingVerdict:
		u.awaitVerdict(d, dt)
		if d.stage != resolved {
			return
		}
	case resolved:
		d.held += dt
	}
	if d.held < u.cfg.ResultDelay {
		return
	}
	u.apply(d)
}

func (u *useCase) awaitVerdict(d *activeDuel, dt time.Duration) {
	d.elapsed += dt
	if d.resolverDown {
		d.downFor += dt
	}
	switch {
	case d.resolverDown && d.downFor >= u.cfg.FallbackDelay:
	case d.elapsed >= u.cfg.Timeout:
		u.logger.Info("duel timed out", zap.String("duel", d.req.ID), zap.Duration("elapsed", d.elapsed))
	default:
		return
	}
	d.attackerWins = u.roll(d.req.AttackerType, d.req.DefenderType)
	d.fallback = true
	d.stage = resolved
	u.logger.Info("fallback verdict rolled", zap.String("duel", d.req.ID), zap.Bool("attacker wins", d.attackerWins))
}

func (u *useCase) apply(d *activeDuel) {
	winner, loser := d.defender, d.attacker
	if d.attackerWins {
		winner, loser = d.attacker, d.defender
	}
	u.unbind(loser)
	loser.Destroy()
	if d.attackerWins {
		u.unbind(winner)
	}
	if err := u.board.Place(winner, d.req.Target); err != nil {
		u.logger.Warn("failed to place duel winner", zap.String("duel", d.req.ID), zap.Error(err))
	}
	u.fixOwnership(d, winner, loser)
	d.stage = applied
	u.active = nil
	u.logger.Info("duel applied",
		zap.String("duel", d.req.ID),
		zap.String("winner", winner.ID()),
		zap.Bool("attacker wins", d.attackerWins),
		zap.Bool("fallback", d.fallback))
	if u.listener != nil {
		u.listener.DuelEnded(d.req, d.attackerWins)
	}
	if d.onDone != nil {
		d.onDone(d.attackerWins)
	}
}

// fixOwnership forces the target cell to hold the winner and strips every
// other binding of the winner and loser from the board.
func (u *useCase) fixOwnership(d *activeDuel, winner, loser *domain.Piece) {
	target := d.req.Target
	if occupant := u.board.Get(target); occupant != winner {
		u.logger.Warn("ownership mismatch on duel target",
			zap.String("duel", d.req.ID),
			zap.Stringer("target", target),
			zap.String("expected", winner.ID()),
			zap.Bool("empty", occupant == nil))
		u.board.Remove(target)
		if err := u.board.Place(winner, target); err != nil {
			u.logger.Warn("failed to restore duel winner", zap.String("duel", d.req.ID), zap.Error(err))
		}
	}
	stray := make([]domain.Cell, 0)
	for c, p := range u.board.AllPieces() {
		if p == loser || (p == winner && c != target) {
			stray = append(stray, c)
		}
	}
	for _, c := range stray {
		u.logger.Warn("stray duel participant removed", zap.String("duel", d.req.ID), zap.Stringer("cell", c))
		u.board.Remove(c)
	}
}

func (u *useCase) unbind(piece *domain.Piece) {
	cells := make([]domain.Cell, 0, 1)
	for c, p := range u.board.AllPieces() {
		if p == piece {
			cells = append(cells, c)
		}
	}
	for _, c := range cells {
		u.board.Remove(c)
	}
}
