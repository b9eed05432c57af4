package turn

import (
	"github.com/pkg/errors"
)

var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrNotYourTurn  = errors.New("it is not this team's turn")
	ErrBusy         = errors.New("a duel is in progress")
	ErrGameOver     = errors.New("the game is over")
	ErrUnknownPiece = errors.New("no such piece on the origin cell")
)
