package domain

import (
	"iter"

	"github.com/pkg/errors"
)

var ErrOutOfBounds = errors.New("cell is out of board bounds")

// Board owns piece occupancy. The grid is the single source of truth for who
// is where; pieces never outlive their removal here, they are only unbound.
type Board struct {
	rows    int
	columns int
	grid    [][]*Piece // indexed [x][y]
}

func NewBoard(rows, columns int) *Board {
	grid := make([][]*Piece, columns)
	for x := range grid {
		grid[x] = make([]*Piece, rows)
	}
	return &Board{
		rows:    rows,
		columns: columns,
		grid:    grid,
	}
}

func (b *Board) Rows() int {
	return b.rows
}

func (b *Board) Columns() int {
	return b.columns
}

func (b *Board) Contains(c Cell) bool {
	return c.X >= 0 && c.X < b.columns && c.Y >= 0 && c.Y < b.rows
}

// Place binds cell to piece, overwriting any prior occupant reference.
func (b *Board) Place(piece *Piece, c Cell) error {
	if !b.Contains(c) {
		return errors.WithMessagef(ErrOutOfBounds, "place %s", c)
	}
	b.grid[c.X][c.Y] = piece
	if piece != nil {
		piece.position = c
	}
	return nil
}

// Move rebinds piece from one cell to another. An enemy occupying the
// destination is evicted and returned; its lifetime belongs to the caller.
func (b *Board) Move(piece *Piece, from, to Cell) (captured *Piece, err error) {
	if existing := b.Get(to); existing != nil && existing != piece && existing.team != piece.team {
		captured = existing
	}
	if b.Contains(from) {
		b.grid[from.X][from.Y] = nil
	}
	if !b.Contains(to) {
		return captured, errors.WithMessagef(ErrOutOfBounds, "move to %s", to)
	}
	b.grid[to.X][to.Y] = piece
	piece.position = to
	return captured, nil
}

// Remove clears the cell without touching the occupant.
func (b *Board) Remove(c Cell) {
	if !b.Contains(c) {
		return
	}
	b.grid[c.X][c.Y] = nil
}

func (b *Board) Get(c Cell) *Piece {
	if !b.Contains(c) {
		return nil
	}
	return b.grid[c.X][c.Y]
}

// AllPieces yields occupied cells column by column, bottom row first.
func (b *Board) AllPieces() iter.Seq2[Cell, *Piece] {
	return func(yield func(Cell, *Piece) bool) {
		for x := 0; x < b.columns; x++ {
			for y := 0; y < b.rows; y++ {
				p := b.grid[x][y]
				if p == nil {
					continue
				}
				if !yield(Cell{X: x, Y: y}, p) {
					return
				}
			}
		}
	}
}

// Clear unbinds every cell and returns the pieces that were on the board.
func (b *Board) Clear() []*Piece {
	removed := make([]*Piece, 0)
	for c, p := range b.AllPieces() {
		removed = append(removed, p)
		b.grid[c.X][c.Y] = nil
	}
	return removed
}

func (b *Board) CountByTeam() map[Team]int {
	counts := map[Team]int{TeamA: 0, TeamB: 0}
	for _, p := range b.AllPieces() {
		counts[p.team]++
	}
	return counts
}
