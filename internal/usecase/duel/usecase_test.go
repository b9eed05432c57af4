package duel

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/kiryu-dev/duel-chess/internal/config"
	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeResolver struct {
	requests []domain.DuelRequest
	err      error
}

func (r *fakeResolver) RequestDuel(_ context.Context, req domain.DuelRequest) error {
	r.requests = append(r.requests, req)
	return r.err
}

type recordingListener struct {
	began []domain.DuelRequest
	ended []bool
}

func (l *recordingListener) DuelBegan(req domain.DuelRequest) {
	l.began = append(l.began, req)
}

func (l *recordingListener) DuelEnded(_ domain.DuelRequest, attackerWins bool) {
	l.ended = append(l.ended, attackerWins)
}

type fixture struct {
	board    *domain.Board
	resolver *fakeResolver
	listener *recordingListener
	arbiter  *useCase
	attacker *domain.Piece
	defender *domain.Piece
	target   domain.Cell
	outcomes []bool
}

func testConfig() config.DuelConfig {
	return config.DuelConfig{
		Timeout:       30 * time.Second,
		FallbackDelay: time.Second,
		Weights:       domain.DefaultWeights(),
	}
}

func newFixture(t *testing.T, cfg config.DuelConfig) *fixture {
	t.Helper()
	f := &fixture{
		board:    domain.NewBoard(6, 6),
		resolver: &fakeResolver{},
		listener: &recordingListener{},
		attacker: domain.NewPiece(domain.King, domain.TeamA),
		defender: domain.NewPiece(domain.Pawn, domain.TeamB),
		target:   domain.Cell{X: 3, Y: 3},
	}
	require.NoError(t, f.board.Place(f.attacker, domain.Cell{X: 2, Y: 2}))
	require.NoError(t, f.board.Place(f.defender, f.target))
	f.arbiter = New(f.board, f.resolver, f.listener, cfg, rand.New(rand.NewPCG(1, 2)), zap.NewNop())
	return f
}

func (f *fixture) start(t *testing.T) domain.DuelRequest {
	t.Helper()
	err := f.arbiter.Start(context.Background(), f.attacker, f.defender, f.target, func(attackerWins bool) {
		f.outcomes = append(f.outcomes, attackerWins)
	})
	require.NoError(t, err)
	require.Len(t, f.resolver.requests, 1)
	return f.resolver.requests[0]
}

func TestDuelAttackerWins(t *testing.T) {
	f := newFixture(t, testConfig())
	req := f.start(t)

	assert.True(t, f.arbiter.Busy())
	assert.Same(t, f.defender, f.board.Get(f.target), "board untouched while awaiting verdict")

	require.NoError(t, f.arbiter.Report(domain.DuelResult{ID: req.ID, AttackerWins: true}))
	f.arbiter.Tick(context.Background(), 50*time.Millisecond)

	assert.Same(t, f.attacker, f.board.Get(f.target))
	assert.Nil(t, f.board.Get(domain.Cell{X: 2, Y: 2}))
	assert.True(t, f.defender.Destroyed())
	assert.False(t, f.attacker.Destroyed())
	assert.Equal(t, f.target, f.attacker.Position())
	assert.False(t, f.arbiter.Busy())
	assert.Equal(t, []bool{true}, f.outcomes)
}

func TestDuelDefenderWins(t *testing.T) {
	f := newFixture(t, testConfig())
	req := f.start(t)

	require.NoError(t, f.arbiter.Report(domain.DuelResult{ID: req.ID, AttackerWins: false}))
	f.arbiter.Tick(context.Background(), 50*time.Millisecond)

	assert.Same(t, f.defender, f.board.Get(f.target))
	assert.Nil(t, f.board.Get(domain.Cell{X: 2, Y: 2}))
	assert.True(t, f.attacker.Destroyed())
	assert.Equal(t, []bool{false}, f.outcomes)
}

func TestDuelRequestDescribesParticipants(t *testing.T) {
	f := newFixture(t, testConfig())
	req := f.start(t)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, f.attacker.ID(), req.AttackerID)
	assert.Equal(t, domain.King, req.AttackerType)
	assert.Equal(t, domain.TeamA, req.AttackerTeam)
	assert.Equal(t, domain.Pawn, req.DefenderType)
	assert.Equal(t, domain.TeamB, req.DefenderTeam)
	assert.Equal(t, f.target, req.Target)
	assert.Equal(t, []domain.DuelRequest{req}, f.listener.began)
}

func TestDuelFirstVerdictWins(t *testing.T) {
	f := newFixture(t, testConfig())
	req := f.start(t)

	require.NoError(t, f.arbiter.Report(domain.DuelResult{ID: req.ID, AttackerWins: true}))
	err := f.arbiter.Report(domain.DuelResult{ID: req.ID, AttackerWins: false})
	assert.True(t, errors.Is(err, ErrDuplicateVerdict))

	f.arbiter.Tick(context.Background(), time.Millisecond)
	assert.Same(t, f.attacker, f.board.Get(f.target))
	assert.Equal(t, []bool{true}, f.listener.ended)
}

func TestDuelReportAfterApplyIgnored(t *testing.T) {
	f := newFixture(t, testConfig())
	req := f.start(t)
	require.NoError(t, f.arbiter.Report(domain.DuelResult{ID: req.ID, AttackerWins: true}))
	f.arbiter.Tick(context.Background(), time.Millisecond)

	err := f.arbiter.Report(domain.DuelResult{ID: req.ID, AttackerWins: false})
	assert.True(t, errors.Is(err, ErrUnknownDuel))
	assert.Same(t, f.attacker, f.board.Get(f.target))
	assert.Len(t, f.outcomes, 1)
}

func TestDuelUnknownIDIgnored(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)

	err := f.arbiter.Report(domain.DuelResult{ID: "other", AttackerWins: true})
	assert.True(t, errors.Is(err, ErrUnknownDuel))
	assert.True(t, f.arbiter.Busy())
}

func TestDuelSecondStartRejected(t *testing.T) {
	f := newFixture(t, testConfig())
	f.start(t)
	other := domain.NewPiece(domain.Rook, domain.TeamA)
	require.NoError(t, f.board.Place(other, domain.Cell{X: 0, Y: 0}))

	err := f.arbiter.Start(context.Background(), other, f.defender, f.target, nil)
	assert.True(t, errors.Is(err, ErrDuelInProgress))
	assert.Len(t, f.resolver.requests, 1)
	assert.Same(t, other, f.board.Get(domain.Cell{X: 0, Y: 0}))
	assert.Same(t, f.defender, f.board.Get(f.target))
}

func TestDuelStartNeedsBothPieces(t *testing.T) {
	f := newFixture(t, testConfig())
	err := f.arbiter.Start(context.Background(), f.attacker, nil, f.target, nil)
	assert.True(t, errors.Is(err, ErrInvalidDuel))
	assert.False(t, f.arbiter.Busy())
}

func TestDuelTimeoutRollsOnce(t *testing.T) {
	f := newFixture(t, testConfig())
	rolls := 0
	f.arbiter.roll = func(atk, def domain.PieceType) bool {
		rolls++
		return true
	}
	f.start(t)

	for i := 0; i < 29; i++ {
		f.arbiter.Tick(context.Background(), time.Second)
	}
	assert.Equal(t, 0, rolls)
	assert.True(t, f.arbiter.Busy())

	f.arbiter.Tick(context.Background(), time.Second)
	assert.Equal(t, 1, rolls)
	assert.False(t, f.arbiter.Busy())
	assert.Same(t, f.attacker, f.board.Get(f.target))

	f.arbiter.Tick(context.Background(), time.Minute)
	assert.Equal(t, 1, rolls)
	assert.Equal(t, []bool{true}, f.outcomes)
}

func TestDuelResolverUnavailableFallsBack(t *testing.T) {
	f := newFixture(t, testConfig())
	f.resolver.err = errors.New("arena is down")
	rolls := 0
	f.arbiter.roll = func(atk, def domain.PieceType) bool {
		rolls++
		return false
	}
	f.start(t)

	f.arbiter.Tick(context.Background(), 500*time.Millisecond)
	assert.True(t, f.arbiter.Busy())
	f.arbiter.Tick(context.Background(), 500*time.Millisecond)
	assert.False(t, f.arbiter.Busy())
	assert.Equal(t, 1, rolls)
	assert.Same(t, f.defender, f.board.Get(f.target))
}

func TestDuelResolverFailedLater(t *testing.T) {
	f := newFixture(t, testConfig())
	req := f.start(t)

	f.arbiter.Tick(context.Background(), 10*time.Second)
	f.arbiter.ResolverFailed("other", errors.New("ignored"))
	f.arbiter.Tick(context.Background(), time.Second)
	assert.True(t, f.arbiter.Busy())

	f.arbiter.ResolverFailed(req.ID, errors.New("connection refused"))
	f.arbiter.Tick(context.Background(), time.Second)
	assert.False(t, f.arbiter.Busy())
	assert.Len(t, f.outcomes, 1)
}

func TestDuelWithoutResolver(t *testing.T) {
	board := domain.NewBoard(6, 6)
	attacker := domain.NewPiece(domain.Queen, domain.TeamB)
	defender := domain.NewPiece(domain.Knight, domain.TeamA)
	require.NoError(t, board.Place(attacker, domain.Cell{X: 0, Y: 5}))
	require.NoError(t, board.Place(defender, domain.Cell{X: 0, Y: 0}))
	arbiter := New(board, nil, nil, testConfig(), rand.New(rand.NewPCG(3, 4)), zap.NewNop())

	done := false
	require.NoError(t, arbiter.Start(context.Background(), attacker, defender, domain.Cell{X: 0, Y: 0}, func(bool) {
		done = true
	}))
	arbiter.Tick(context.Background(), time.Second)
	assert.True(t, done)
	assert.Equal(t, 1, board.CountByTeam()[domain.TeamA]+board.CountByTeam()[domain.TeamB])
}

func TestDuelResultDelay(t *testing.T) {
	cfg := testConfig()
	cfg.ResultDelay = 2 * time.Second
	f := newFixture(t, cfg)
	req := f.start(t)

	require.NoError(t, f.arbiter.Report(domain.DuelResult{ID: req.ID, AttackerWins: true}))
	f.arbiter.Tick(context.Background(), time.Second)
	assert.True(t, f.arbiter.Busy())
	assert.Same(t, f.defender, f.board.Get(f.target))

	f.arbiter.Tick(context.Background(), time.Second)
	assert.False(t, f.arbiter.Busy())
	assert.Same(t, f.attacker, f.board.Get(f.target))
}

func TestDuelOwnershipFixup(t *testing.T) {
	f := newFixture(t, testConfig())
	req := f.start(t)

	// side effects of the resolver left a stale copy of both participants
	require.NoError(t, f.board.Place(f.defender, domain.Cell{X: 0, Y: 5}))
	require.NoError(t, f.board.Place(f.attacker, domain.Cell{X: 5, Y: 0}))
	f.board.Remove(f.target)
	require.NoError(t, f.board.Place(f.defender, f.target))

	require.NoError(t, f.arbiter.Report(domain.DuelResult{ID: req.ID, AttackerWins: false}))
	f.arbiter.Tick(context.Background(), time.Millisecond)

	assert.Same(t, f.defender, f.board.Get(f.target))
	cells := make(map[domain.Cell]*domain.Piece)
	for c, p := range f.board.AllPieces() {
		cells[c] = p
	}
	assert.Equal(t, map[domain.Cell]*domain.Piece{f.target: f.defender}, cells)
	assert.Equal(t, f.target, f.defender.Position())
}

func TestRollConvergesToWeights(t *testing.T) {
	rnd := rand.New(rand.NewPCG(42, 7))
	weights := domain.WeightTable{domain.King: 10, domain.Pawn: 1}
	const n = 20000
	wins := 0
	for i := 0; i < n; i++ {
		if Roll(rnd, weights, domain.King, domain.Pawn) {
			wins++
		}
	}
	assert.InDelta(t, 10.0/11.0, float64(wins)/n, 0.01)
}

func TestRollUnknownTypesEven(t *testing.T) {
	rnd := rand.New(rand.NewPCG(5, 5))
	const n = 20000
	wins := 0
	for i := 0; i < n; i++ {
		if Roll(rnd, domain.WeightTable{}, domain.PieceType(50), domain.PieceType(51)) {
			wins++
		}
	}
	assert.InDelta(t, 0.5, float64(wins)/n, 0.02)
}

func TestRollZeroWeights(t *testing.T) {
	rnd := rand.New(rand.NewPCG(9, 9))
	weights := domain.WeightTable{domain.Rook: 0, domain.Bishop: 0}
	assert.NotPanics(t, func() {
		Roll(rnd, weights, domain.Rook, domain.Bishop)
	})
	weights[domain.Bishop] = 3
	for i := 0; i < 100; i++ {
		assert.False(t, Roll(rnd, weights, domain.Rook, domain.Bishop))
	}
}
