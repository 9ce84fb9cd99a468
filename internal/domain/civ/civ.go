// Package civ defines the core domain entities of an observed civilization.
// This package is PURE and must NOT import any infrastructure packages.
package civ

import "time"

// Era is a civilization stage. Eras form a total order.
type Era string

const (
	StoneAge  Era = "StoneAge"
	BronzeAge Era = "BronzeAge"
	IronAge   Era = "IronAge"
	ModernAge Era = "ModernAge"
	FutureAge Era = "FutureAge"
)

// EraOrder is the fixed progression direction.
var EraOrder = []Era{StoneAge, BronzeAge, IronAge, ModernAge, FutureAge}

// Index returns the position of e in EraOrder, or -1 if e is unknown.
func (e Era) Index() int {
	for i, era := range EraOrder {
		if era == e {
			return i
		}
	}
	return -1
}

// Valid reports whether e is a known era.
func (e Era) Valid() bool {
	return e.Index() >= 0
}

// Next returns the successor era. ok is false at the terminal era.
func (e Era) Next() (next Era, ok bool) {
	idx := e.Index()
	if idx < 0 || idx >= len(EraOrder)-1 {
		return e, false
	}
	return EraOrder[idx+1], true
}

// Resources is the economy vector.
type Resources struct {
	Wood       float64 `json:"wood"`
	Stone      float64 `json:"stone"`
	Food       float64 `json:"food"`
	Population float64 `json:"population"`
	Knowledge  float64 `json:"knowledge"`
}

// ClampNonNegative floors every component at zero.
func (r Resources) ClampNonNegative() Resources {
	r.Wood = floorZero(r.Wood)
	r.Stone = floorZero(r.Stone)
	r.Food = floorZero(r.Food)
	r.Population = floorZero(r.Population)
	r.Knowledge = floorZero(r.Knowledge)
	return r
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// ResourcePatch is a partial override of Resources.
// Nil fields leave the corresponding component untouched.
type ResourcePatch struct {
	Wood       *float64 `json:"wood,omitempty"`
	Stone      *float64 `json:"stone,omitempty"`
	Food       *float64 `json:"food,omitempty"`
	Population *float64 `json:"population,omitempty"`
	Knowledge  *float64 `json:"knowledge,omitempty"`
}

// Set is a helper for building patches.
func Set(v float64) *float64 {
	return &v
}

// Empty reports whether the patch overrides nothing.
func (p ResourcePatch) Empty() bool {
	return p.Wood == nil && p.Stone == nil && p.Food == nil && p.Population == nil && p.Knowledge == nil
}

// Merge replaces only the keys present in the patch.
func (p ResourcePatch) Merge(r Resources) Resources {
	if p.Wood != nil {
		r.Wood = *p.Wood
	}
	if p.Stone != nil {
		r.Stone = *p.Stone
	}
	if p.Food != nil {
		r.Food = *p.Food
	}
	if p.Population != nil {
		r.Population = *p.Population
	}
	if p.Knowledge != nil {
		r.Knowledge = *p.Knowledge
	}
	return r
}

// EraRequirements are indexed by the era being entered.
var EraRequirements = map[Era]Resources{
	BronzeAge: {Wood: 500, Stone: 200, Food: 500, Population: 50, Knowledge: 100},
	IronAge:   {Wood: 2000, Stone: 1000, Food: 2000, Population: 200, Knowledge: 500},
	ModernAge: {Wood: 10000, Stone: 5000, Food: 10000, Population: 1000, Knowledge: 2000},
	FutureAge: {Wood: 50000, Stone: 50000, Food: 50000, Population: 5000, Knowledge: 10000},
}

const (
	MaxKarma     = 1000
	InitialKarma = 1000
)

// ClampKarma keeps karma within [0, MaxKarma].
func ClampKarma(k int) int {
	if k < 0 {
		return 0
	}
	if k > MaxKarma {
		return MaxKarma
	}
	return k
}

// GodState is the root aggregate of a single observed run.
type GodState struct {
	Name              string    `json:"name"`
	Karma             int       `json:"karma"`
	CurrentEra        Era       `json:"current_era"`
	Resources         Resources `json:"resources"`
	InterventionCount int       `json:"intervention_count"`
	StartTime         time.Time `json:"start_time"`
}

// NewGodState returns the initial state of a fresh run.
func NewGodState(name string, now time.Time) GodState {
	return GodState{
		Name:       name,
		Karma:      InitialKarma,
		CurrentEra: StoneAge,
		Resources:  Resources{Food: 100, Population: 10},
		StartTime:  now,
	}
}

// Rarity classifies a finished run by remaining karma.
type Rarity string

const (
	RarityLost   Rarity = "Lost"
	RarityCommon Rarity = "Common"
	RarityRare   Rarity = "Rare"
	RarityEpic   Rarity = "Epic"
	RarityDivine Rarity = "Divine"
)

// RarityFor maps final karma to an ending card rarity.
func RarityFor(karma int) Rarity {
	switch {
	case karma <= 0:
		return RarityLost
	case karma < 300:
		return RarityCommon
	case karma < 600:
		return RarityRare
	case karma < 900:
		return RarityEpic
	default:
		return RarityDivine
	}
}

// HistoryRecord summarizes a finished run.
type HistoryRecord struct {
	GodName    string    `json:"god_name"`
	FinalEra   Era       `json:"final_era"`
	FinalKarma int       `json:"final_karma"`
	TotalPop   float64   `json:"total_pop"`
	Judgement  string    `json:"judgement"`
	Rarity     Rarity    `json:"rarity"`
	Timestamp  time.Time `json:"timestamp"`
	LegacyCode string    `json:"legacy_code"`
}
