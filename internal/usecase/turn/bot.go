package turn

import (
	"context"

	"github.com/kiryu-dev/duel-chess/internal/domain"
	"go.uber.org/zap"
)

type candidate struct {
	piece   *domain.Piece
	from    domain.Cell
	to      domain.Cell
	capture bool
}

func (u *useCase) candidates(team domain.Team) []candidate {
	pieces := make([]*domain.Piece, 0)
	for _, p := range u.board.AllPieces() {
		if p.Team() == team {
			pieces = append(pieces, p)
		}
	}
	moves := make([]candidate, 0)
	for _, p := range pieces {
		for _, to := range u.rules.LegalMoves(u.board, p) {
			target := u.board.Get(to)
			moves = append(moves, candidate{
				piece:   p,
				from:    p.Position(),
				to:      to,
				capture: target != nil && target.Team() != team,
			})
		}
	}
	return moves
}

// choose prefers captures; among equals the pick is uniform.
func (u *useCase) choose(moves []candidate) candidate {
	captures := make([]candidate, 0)
	for _, m := range moves {
		if m.capture {
			captures = append(captures, m)
		}
	}
	if len(captures) > 0 {
		return captures[u.rnd.IntN(len(captures))]
	}
	return moves[u.rnd.IntN(len(moves))]
}

func (u *useCase) playBot(ctx context.Context) {
	team := u.state.CurrentTeam
	moves := u.candidates(team)
	if len(moves) == 0 {
		u.logger.Info("bot has no legal move, passing", zap.Stringer("team", team))
		u.finishTurn(team)
		return
	}
	choice := u.choose(moves)
	u.logger.Info("bot move",
		zap.Stringer("piece", choice.piece),
		zap.Stringer("to", choice.to),
		zap.Bool("capture", choice.capture))
	if err := u.execute(ctx, choice.piece, choice.from, choice.to); err != nil {
		u.logger.Warn("bot move failed", zap.Error(err))
	}
}
