// Package power defines the catalog of god powers an observer can spend karma on.
// This package is PURE and must NOT import any infrastructure packages.
package power

import "github.com/velist/gametest/internal/domain/civ"

// Category groups powers by intent.
type Category string

const (
	CategoryDisaster Category = "disaster"
	CategoryMiracle  Category = "miracle"
)

// ID identifies a power.
type ID string

const (
	Flood        ID = "flood"
	Plague       ID = "plague"
	Meteor       ID = "meteor"
	Bloom        ID = "bloom"
	Tech         ID = "tech"
	ResourceRain ID = "res"
)

// Power is an immutable catalog entry.
type Power struct {
	ID       ID       `json:"id"`
	Category Category `json:"category"`
	Cost     int      `json:"cost"`
}

// Catalog is the process-wide power list, in display order.
var Catalog = []Power{
	{ID: Flood, Category: CategoryDisaster, Cost: 50},
	{ID: Plague, Category: CategoryDisaster, Cost: 60},
	{ID: Meteor, Category: CategoryDisaster, Cost: 80},
	{ID: Bloom, Category: CategoryMiracle, Cost: 150},
	{ID: Tech, Category: CategoryMiracle, Cost: 200},
	{ID: ResourceRain, Category: CategoryMiracle, Cost: 100},
}

// Lookup finds a power by id.
func Lookup(id ID) (Power, bool) {
	for _, p := range Catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Power{}, false
}

// ApplyEffect computes the override a power produces from the
// pre-intervention resources. Unknown ids yield an empty patch.
func ApplyEffect(id ID, r civ.Resources) civ.ResourcePatch {
	switch id {
	case Flood:
		return civ.ResourcePatch{Population: civ.Set(r.Population * 0.7)}
	case Plague:
		return civ.ResourcePatch{Population: civ.Set(r.Population * 0.6)}
	case Meteor:
		return civ.ResourcePatch{
			Population: civ.Set(r.Population * 0.5),
			Wood:       civ.Set(0),
		}
	case Bloom:
		return civ.ResourcePatch{
			Population: civ.Set(r.Population * 1.5),
			Food:       civ.Set(r.Food + 500),
		}
	case Tech:
		return civ.ResourcePatch{Knowledge: civ.Set(r.Knowledge + 500)}
	case ResourceRain:
		return civ.ResourcePatch{
			Wood:  civ.Set(r.Wood + 1000),
			Stone: civ.Set(r.Stone + 1000),
		}
	default:
		return civ.ResourcePatch{}
	}
}
