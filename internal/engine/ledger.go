package engine

import (
	"github.com/velist/gametest/internal/domain/civ"
	"github.com/velist/gametest/internal/domain/power"
)

// ApplyIntervention spends karma on a power. On rejection the returned state
// is the input state, unchanged.
func ApplyIntervention(state civ.GodState, id power.ID) (civ.GodState, power.Power, error) {
	p, ok := power.Lookup(id)
	if !ok {
		return state, power.Power{}, ErrUnknownPower
	}
	if state.Karma < p.Cost {
		return state, p, ErrInsufficientKarma
	}

	// Effects read the pre-intervention resources.
	patch := power.ApplyEffect(p.ID, state.Resources)

	state.Karma = civ.ClampKarma(state.Karma - p.Cost)
	state.InterventionCount++
	state.Resources = patch.Merge(state.Resources).ClampNonNegative()
	return state, p, nil
}
