package gameover

import (
	"github.com/kiryu-dev/duel-chess/internal/config"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"go.uber.org/zap"
)

type useCase struct {
	teams    config.TeamsConfig
	finished bool
	result   domain.GameResult
	logger   *zap.Logger
}

func New(teams config.TeamsConfig, logger *zap.Logger) *useCase {
	return &useCase{
		teams:  teams,
		logger: logger,
	}
}

// Check reports the game as over once one team has no pieces left. An
// empty board does not count as a finished game.
func (u *useCase) Check(board *domain.Board) (domain.GameResult, bool) {
	if u.finished {
		return u.result, true
	}
	counts := board.CountByTeam()
	a, b := counts[domain.TeamA], counts[domain.TeamB]
	if (a == 0 && b == 0) || (a > 0 && b > 0) {
		return domain.GameResult{}, false
	}
	winner := domain.TeamA
	if a == 0 {
		winner = domain.TeamB
	}
	u.finished = true
	u.result = domain.GameResult{
		Winner:    winner,
		PlayerWon: winner == u.playerTeam(),
	}
	u.logger.Info("team eliminated",
		zap.Stringer("winner", winner),
		zap.Int("survivors", max(a, b)),
		zap.Bool("player won", u.result.PlayerWon))
	return u.result, true
}

func (u *useCase) Reset() {
	u.finished = false
	u.result = domain.GameResult{}
}

// playerTeam is the only human team, or team A when that is ambiguous.
func (u *useCase) playerTeam() domain.Team {
	a, b := u.teams.A.Human, u.teams.B.Human
	if b && !a {
		return domain.TeamB
	}
	return domain.TeamA
}
