package engine

import (
	"math"

	"github.com/velist/gametest/internal/domain/civ"
)

// AdvanceEconomy evolves the resource vector by one tick. timeSpeed scales
// every rate; it never changes the tick period.
func AdvanceEconomy(r civ.Resources, era civ.Era, timeSpeed float64) civ.Resources {
	multiplier := timeSpeed * (1 + math.Log(math.Max(r.Population, 1))/10)

	// Passive growth
	r.Food += 1 * multiplier
	r.Wood += 0.5 * multiplier

	// Population consumes food after it grows
	if r.Food > r.Population {
		r.Population += r.Population * 0.005 * timeSpeed
		r.Food -= r.Population * 0.01
	} else {
		r.Population -= r.Population * 0.01 * timeSpeed
	}

	if era != civ.StoneAge {
		r.Knowledge += 0.002 * r.Population * timeSpeed
		r.Stone += 0.5 * multiplier
	}

	return r.ClampNonNegative()
}
