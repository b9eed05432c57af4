package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrUnknownPieceType = errors.New("unknown piece type")

type PieceType byte

const (
	King = PieceType(iota)
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

// PieceTypes is the closed roster in declaration order.
var PieceTypes = [...]PieceType{King, Queen, Rook, Bishop, Knight, Pawn}

var pieceTypeNames = map[PieceType]string{
	King:   "King",
	Queen:  "Queen",
	Rook:   "Rook",
	Bishop: "Bishop",
	Knight: "Knight",
	Pawn:   "Pawn",
}

func (t PieceType) String() string {
	if name, ok := pieceTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PIECE_%d", byte(t))
}

func ParsePieceType(s string) (PieceType, error) {
	for t, name := range pieceTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, errors.WithMessagef(ErrUnknownPieceType, "'%s'", s)
}

type Team byte

const (
	TeamA = Team('A')
	TeamB = Team('B')
)

func (t Team) Other() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

func (t Team) String() string {
	return string(t)
}

type Cell struct {
	X int
	Y int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Piece is bound to at most one board cell. Its position is written only by Board.
type Piece struct {
	id        string
	kind      PieceType
	team      Team
	position  Cell
	destroyed bool
}

func NewPiece(kind PieceType, team Team) *Piece {
	return &Piece{
		id:   uuid.NewString(),
		kind: kind,
		team: team,
	}
}

func (p *Piece) ID() string {
	return p.id
}

func (p *Piece) Type() PieceType {
	return p.kind
}

func (p *Piece) Team() Team {
	return p.team
}

// Position is the last cell the board bound this piece to.
func (p *Piece) Position() Cell {
	return p.position
}

func (p *Piece) Destroy() {
	p.destroyed = true
}

func (p *Piece) Destroyed() bool {
	return p.destroyed
}

func (p *Piece) String() string {
	return fmt.Sprintf("%s %s@%s", p.team, p.kind, p.position)
}
