package domain

import (
	"context"
	"time"
)

type TurnPhase byte

const (
	AwaitingMove = TurnPhase(iota)
	Busy
	GameOver
)

var turnPhaseNames = map[TurnPhase]string{
	AwaitingMove: "awaiting_move",
	Busy:         "busy",
	GameOver:     "game_over",
}

func (p TurnPhase) String() string {
	if name, ok := turnPhaseNames[p]; ok {
		return name
	}
	return "unknown"
}

type TurnState struct {
	Phase       TurnPhase
	CurrentTeam Team
}

type Move struct {
	Piece     *Piece
	From      Cell
	To        Cell
	IsCapture bool
}

type MoveIntent struct {
	PieceID string
	From    Cell
	To      Cell
}

type GameResult struct {
	Winner    Team
	PlayerWon bool
}

type BoardReader interface {
	Rows() int
	Columns() int
	Contains(c Cell) bool
	Get(c Cell) *Piece
}

type RulesUseCase interface {
	IsLegal(board BoardReader, team Team, kind PieceType, from, to Cell) bool
	LegalMoves(board BoardReader, piece *Piece) []Cell
}

type GameOverUseCase interface {
	Check(board *Board) (GameResult, bool)
	Reset()
}

type SpawnerUseCase interface {
	Spawn(board *Board) []*Piece
}

type TurnListener interface {
	MoveApplied(move Move)
	TurnChanged(state TurnState)
	GameFinished(result GameResult)
}

type TurnUseCase interface {
	RequestMove(ctx context.Context, intent MoveIntent) error
	Tick(ctx context.Context, dt time.Duration)
	Restart(ctx context.Context) error
	State() TurnState
}
