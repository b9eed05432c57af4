package rules

import (
	"github.com/kiryu-dev/duel-chess/internal/domain"
)

// moveRule judges a single step from origin to destination. Bounds, the
// no-op move and friendly occupancy are checked before any rule runs.
type moveRule func(board domain.BoardReader, team domain.Team, from, to domain.Cell) bool

var moveRules = map[domain.PieceType]moveRule{
	domain.King:   kingRule,
	domain.Queen:  queenRule,
	domain.Rook:   rookRule,
	domain.Bishop: bishopRule,
	domain.Knight: knightRule,
	domain.Pawn:   pawnRule,
}

type useCase struct{}

func New() useCase {
	return useCase{}
}

func (useCase) IsLegal(board domain.BoardReader, team domain.Team, kind domain.PieceType, from, to domain.Cell) bool {
	return IsLegal(board, team, kind, from, to)
}

func (useCase) LegalMoves(board domain.BoardReader, piece *domain.Piece) []domain.Cell {
	return LegalMoves(board, piece)
}

// IsLegal evaluates the move against from, not the piece's cached position,
// so it answers what-if queries too.
func IsLegal(board domain.BoardReader, team domain.Team, kind domain.PieceType, from, to domain.Cell) bool {
	if from == to || !board.Contains(from) || !board.Contains(to) {
		return false
	}
	if target := board.Get(to); target != nil && target.Team() == team {
		return false
	}
	rule, ok := moveRules[kind]
	if !ok {
		return false
	}
	return rule(board, team, from, to)
}

func LegalMoves(board domain.BoardReader, piece *domain.Piece) []domain.Cell {
	moves := make([]domain.Cell, 0)
	from := piece.Position()
	for x := 0; x < board.Columns(); x++ {
		for y := 0; y < board.Rows(); y++ {
			to := domain.Cell{X: x, Y: y}
			if IsLegal(board, piece.Team(), piece.Type(), from, to) {
				moves = append(moves, to)
			}
		}
	}
	return moves
}

func forward(team domain.Team) int {
	if team == domain.TeamA {
		return 1
	}
	return -1
}

func homeRank(board domain.BoardReader, team domain.Team) int {
	if team == domain.TeamA {
		return min(1, board.Rows()-1)
	}
	return max(board.Rows()-2, 0)
}

func pawnRule(board domain.BoardReader, team domain.Team, from, to domain.Cell) bool {
	dir := forward(team)
	dx, dy := to.X-from.X, to.Y-from.Y
	target := board.Get(to)
	switch {
	case dx == 0 && dy == dir:
		return target == nil
	case dx == 0 && dy == 2*dir && from.Y == homeRank(board, team):
		mid := domain.Cell{X: from.X, Y: from.Y + dir}
		return board.Get(mid) == nil && target == nil
	case abs(dx) == 1 && dy == dir:
		return target != nil && target.Team() != team
	default:
		return false
	}
}

func rookRule(board domain.BoardReader, _ domain.Team, from, to domain.Cell) bool {
	if from.X != to.X && from.Y != to.Y {
		return false
	}
	return pathClear(board, from, to)
}

func bishopRule(board domain.BoardReader, _ domain.Team, from, to domain.Cell) bool {
	if abs(to.X-from.X) != abs(to.Y-from.Y) {
		return false
	}
	return pathClear(board, from, to)
}

func queenRule(board domain.BoardReader, team domain.Team, from, to domain.Cell) bool {
	return rookRule(board, team, from, to) || bishopRule(board, team, from, to)
}

func knightRule(_ domain.BoardReader, _ domain.Team, from, to domain.Cell) bool {
	dx, dy := abs(to.X-from.X), abs(to.Y-from.Y)
	return (dx == 1 && dy == 2) || (dx == 2 && dy == 1)
}

// kingRule has no notion of check: a king may step onto an attacked cell.
func kingRule(_ domain.BoardReader, _ domain.Team, from, to domain.Cell) bool {
	return abs(to.X-from.X) <= 1 && abs(to.Y-from.Y) <= 1
}

// pathClear walks the straight or diagonal line between from and to,
// excluding both endpoints.
func pathClear(board domain.BoardReader, from, to domain.Cell) bool {
	stepX, stepY := sign(to.X-from.X), sign(to.Y-from.Y)
	for c := (domain.Cell{X: from.X + stepX, Y: from.Y + stepY}); c != to; {
		if board.Get(c) != nil {
			return false
		}
		c.X += stepX
		c.Y += stepY
	}
	return true
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
