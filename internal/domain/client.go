package domain

import (
	"github.com/pkg/errors"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrEmptyMessage     = errors.New("empty message")
)

const (
	ClientUuidHeader = "X-Client-Key"
)

type messageType byte

const (
	Snapshot = messageType(iota)
	PlayerMove
	MoveRejected
	DuelBegin
	DuelEnd
	GameFinished
	Restart
)

type Message struct {
	Type    messageType
	Payload any
}

type PieceView struct {
	ID   string
	Type PieceType
	Team Team
	Cell Cell
}

type SnapshotPayload struct {
	Rows    int
	Columns int
	Pieces  []PieceView
	Turn    TurnState
	Result  *GameResult
}

type PlayerMovePayload struct {
	PieceID string
	From    Cell
	To      Cell
}

type MoveRejectedPayload struct {
	PieceID string
	From    Cell
	Reason  string
}

type DuelBeginPayload struct {
	Request DuelRequest
}

type DuelEndPayload struct {
	ID           string
	Target       Cell
	AttackerWins bool
}

type GameFinishedPayload struct {
	Winner    Team
	PlayerWon bool
}

type SnapshotOption func(p *SnapshotPayload)

func WithGameResult(result GameResult) SnapshotOption {
	return func(p *SnapshotPayload) {
		p.Result = &result
	}
}

func NewSnapshot(board *Board, turn TurnState, opts ...SnapshotOption) SnapshotPayload {
	payload := SnapshotPayload{
		Rows:    board.Rows(),
		Columns: board.Columns(),
		Pieces:  make([]PieceView, 0),
		Turn:    turn,
	}
	for c, p := range board.AllPieces() {
		payload.Pieces = append(payload.Pieces, PieceView{
			ID:   p.ID(),
			Type: p.Type(),
			Team: p.Team(),
			Cell: c,
		})
	}
	for _, opt := range opts {
		opt(&payload)
	}
	return payload
}

type Client interface {
	WriteMessage(msg Message) error
	ReadMessage() (Message, error)
	Uuid() string
}
