package domain

import (
	"context"
	"time"
)

// DuelRequest describes one capture to be settled by combat on Target.
type DuelRequest struct {
	ID           string
	AttackerID   string
	AttackerType PieceType
	AttackerTeam Team
	DefenderID   string
	DefenderType PieceType
	DefenderTeam Team
	Target       Cell
}

type DuelResult struct {
	ID           string
	AttackerWins bool
}

// DuelResolver settles duels out of band. RequestDuel must not block on the
// combat itself; the verdict arrives later through the arbiter's Report.
type DuelResolver interface {
	RequestDuel(ctx context.Context, req DuelRequest) error
}

type DuelListener interface {
	DuelBegan(req DuelRequest)
	DuelEnded(req DuelRequest, attackerWins bool)
}

type DuelUseCase interface {
	Start(ctx context.Context, attacker, defender *Piece, target Cell, onDone func(attackerWins bool)) error
	Report(result DuelResult) error
	ResolverFailed(duelID string, err error)
	Tick(ctx context.Context, dt time.Duration)
	Busy() bool
}

// WeightTable holds the fallback combat weight per piece type.
type WeightTable map[PieceType]int

func DefaultWeights() WeightTable {
	return WeightTable{
		King:   10,
		Queen:  9,
		Rook:   5,
		Bishop: 3,
		Knight: 3,
		Pawn:   1,
	}
}

func (w WeightTable) Of(kind PieceType) int {
	if v, ok := w[kind]; ok {
		return v
	}
	return 1
}

// ArenaDuelRequest is what the game server posts to a remote arena.
type ArenaDuelRequest struct {
	Duel        DuelRequest
	CallbackURL string
}

type DuelReporter interface {
	ReportDuel(result DuelResult)
	ResolverFailed(duelID string, err error)
}
