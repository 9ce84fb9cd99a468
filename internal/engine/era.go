package engine

import "github.com/velist/gametest/internal/domain/civ"

// EraTransition is emitted once per era advance.
type EraTransition struct {
	From civ.Era `json:"from"`
	To   civ.Era `json:"to"`
}

// CheckProgression advances the era by at most one step. Only population and
// knowledge gate the advance; the wood, stone and food thresholds are ignored.
func CheckProgression(state civ.GodState) (civ.GodState, *EraTransition) {
	next, ok := state.CurrentEra.Next()
	if !ok {
		return state, nil
	}
	req := civ.EraRequirements[next]
	if state.Resources.Population < req.Population || state.Resources.Knowledge < req.Knowledge {
		return state, nil
	}
	tr := &EraTransition{From: state.CurrentEra, To: next}
	state.CurrentEra = next
	return state, tr
}
