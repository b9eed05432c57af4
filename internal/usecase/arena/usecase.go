package arena

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/kiryu-dev/duel-chess/internal/domain"
	"go.uber.org/zap"
)

// ReportFunc delivers a finished fight back to whoever asked for it.
type ReportFunc func(req domain.DuelRequest, result domain.DuelResult)

// useCase stands in for the fighting mini-game: every duel is a coin flip
// that lands after the fight duration.
type useCase struct {
	fight  time.Duration
	report ReportFunc
	rnd    *rand.Rand
	mu     *sync.Mutex
	logger *zap.Logger
}

func New(fight time.Duration, report ReportFunc, rnd *rand.Rand, logger *zap.Logger) *useCase {
	return &useCase{
		fight:  fight,
		report: report,
		rnd:    rnd,
		mu:     &sync.Mutex{},
		logger: logger,
	}
}

func (u *useCase) RequestDuel(_ context.Context, req domain.DuelRequest) error {
	u.logger.Info("arena fight started",
		zap.String("duel", req.ID),
		zap.Stringer("attacker", req.AttackerType),
		zap.Stringer("defender", req.DefenderType),
		zap.Duration("duration", u.fight))
	time.AfterFunc(u.fight, func() {
		result := domain.DuelResult{ID: req.ID, AttackerWins: u.flip()}
		u.logger.Info("arena fight finished", zap.String("duel", req.ID), zap.Bool("attacker wins", result.AttackerWins))
		u.report(req, result)
	})
	return nil
}

func (u *useCase) flip() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rnd.IntN(2) == 0
}
