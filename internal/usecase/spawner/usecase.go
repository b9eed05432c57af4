package spawner

import (
	"math/rand/v2"

	"github.com/kiryu-dev/duel-chess/internal/config"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"go.uber.org/zap"
)

type useCase struct {
	count  int
	roster []domain.PieceType
	rnd    *rand.Rand
	logger *zap.Logger
}

func New(cfg config.SpawnConfig, rnd *rand.Rand, logger *zap.Logger) *useCase {
	return &useCase{
		count:  cfg.CountPerTeam,
		roster: domain.PieceTypes[:],
		rnd:    rnd,
		logger: logger,
	}
}

// Spawn seeds team A into the lower half of the board and team B into the
// upper half, each piece of a random type on a random free cell.
func (u *useCase) Spawn(board *domain.Board) []*domain.Piece {
	mid := board.Rows() / 2
	pieces := u.spawnTeam(board, domain.TeamA, 0, mid)
	return append(pieces, u.spawnTeam(board, domain.TeamB, mid, board.Rows())...)
}

func (u *useCase) spawnTeam(board *domain.Board, team domain.Team, minY, maxY int) []*domain.Piece {
	free := make([]domain.Cell, 0)
	for x := 0; x < board.Columns(); x++ {
		for y := minY; y < maxY; y++ {
			c := domain.Cell{X: x, Y: y}
			if board.Get(c) == nil {
				free = append(free, c)
			}
		}
	}
	count := u.count
	if count > len(free) {
		u.logger.Warn("not enough free cells for team, spawning fewer pieces",
			zap.Stringer("team", team), zap.Int("requested", count), zap.Int("free", len(free)))
		count = len(free)
	}
	u.rnd.Shuffle(len(free), func(i, j int) {
		free[i], free[j] = free[j], free[i]
	})
	pieces := make([]*domain.Piece, 0, count)
	for _, c := range free[:count] {
		piece := domain.NewPiece(u.roster[u.rnd.IntN(len(u.roster))], team)
		if err := board.Place(piece, c); err != nil {
			u.logger.Warn("failed to place spawned piece", zap.Error(err))
			continue
		}
		pieces = append(pieces, piece)
	}
	return pieces
}
