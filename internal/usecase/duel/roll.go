package duel

import (
	"math/rand/v2"

	"github.com/kiryu-dev/duel-chess/internal/domain"
)

// Roll picks the winner with P(attacker) = w(atk) / (w(atk) + w(def)).
func Roll(rnd *rand.Rand, weights domain.WeightTable, atk, def domain.PieceType) bool {
	a, d := weights.Of(atk), weights.Of(def)
	total := a + d
	if total <= 0 {
		return rnd.IntN(2) == 0
	}
	return rnd.Float64() < float64(a)/float64(total)
}
