package power

import (
	"testing"

	"github.com/velist/gametest/internal/domain/civ"
)

func TestCatalogLookup(t *testing.T) {
	p, ok := Lookup(Meteor)
	if !ok {
		t.Fatalf("Expected meteor in catalog")
	}
	if p.Cost != 80 || p.Category != CategoryDisaster {
		t.Errorf("Unexpected meteor entry: %+v", p)
	}
	if _, ok := Lookup("smite"); ok {
		t.Errorf("Expected unknown power lookup to fail")
	}
}

func TestApplyEffectIsPartialOverride(t *testing.T) {
	before := civ.Resources{Wood: 300, Stone: 10, Food: 50, Population: 100, Knowledge: 7}

	after := ApplyEffect(Meteor, before).Merge(before)
	if after.Population != 50 || after.Wood != 0 {
		t.Errorf("Expected meteor to halve population and zero wood, got %+v", after)
	}
	if after.Stone != 10 || after.Food != 50 || after.Knowledge != 7 {
		t.Errorf("Expected untouched keys to survive, got %+v", after)
	}

	rain := ApplyEffect(ResourceRain, before).Merge(before)
	if rain.Wood != 1300 || rain.Stone != 1010 {
		t.Errorf("Expected resource rain boost, got %+v", rain)
	}

	bloom := ApplyEffect(Bloom, before)
	if bloom.Knowledge != nil || bloom.Wood != nil {
		t.Errorf("Expected bloom to leave wood and knowledge unset")
	}
	if *bloom.Population != 150 || *bloom.Food != 550 {
		t.Errorf("Unexpected bloom patch: pop=%v food=%v", *bloom.Population, *bloom.Food)
	}

	if !ApplyEffect("smite", before).Empty() {
		t.Errorf("Expected unknown power to produce an empty patch")
	}
}

func TestEveryCatalogPowerHasAnEffect(t *testing.T) {
	r := civ.Resources{Population: 10}
	for _, p := range Catalog {
		if ApplyEffect(p.ID, r).Empty() {
			t.Errorf("Power %s has no effect", p.ID)
		}
	}
}
