package engine

import (
	"math"
	"reflect"
	"testing"

	"github.com/velist/gametest/internal/domain/civ"
	"github.com/velist/gametest/internal/domain/power"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestAdvanceEconomyStoneAge(t *testing.T) {
	r := AdvanceEconomy(civ.Resources{Food: 100, Population: 10}, civ.StoneAge, 1)

	mult := 1 + math.Log(10)/10
	if !approx(r.Population, 10.05) {
		t.Errorf("Expected population 10.05, got %v", r.Population)
	}
	if !approx(r.Food, 100+mult-10.05*0.01) {
		t.Errorf("Expected food consumed after growth, got %v", r.Food)
	}
	if !approx(r.Wood, 0.5*mult) {
		t.Errorf("Expected wood %v, got %v", 0.5*mult, r.Wood)
	}
	if r.Knowledge != 0 || r.Stone != 0 {
		t.Errorf("Stone Age must not produce knowledge or stone, got %+v", r)
	}
}

func TestAdvanceEconomyLaterEraAndStarvation(t *testing.T) {
	r := AdvanceEconomy(civ.Resources{Food: 100, Population: 10}, civ.BronzeAge, 1)
	if !approx(r.Knowledge, 0.002*10.05) {
		t.Errorf("Expected knowledge from the grown population, got %v", r.Knowledge)
	}
	if !approx(r.Stone, 0.5*(1+math.Log(10)/10)) {
		t.Errorf("Unexpected stone %v", r.Stone)
	}

	starving := AdvanceEconomy(civ.Resources{Population: 100}, civ.StoneAge, 1)
	if !approx(starving.Population, 99) {
		t.Errorf("Expected population to shrink by 1%%, got %v", starving.Population)
	}
}

func TestAdvanceEconomyScalesWithTimeSpeed(t *testing.T) {
	slow := AdvanceEconomy(civ.Resources{Food: 100, Population: 10}, civ.StoneAge, 0.1)
	fast := AdvanceEconomy(civ.Resources{Food: 100, Population: 10}, civ.StoneAge, 10)
	if !(fast.Population-10 > slow.Population-10) {
		t.Errorf("Expected faster growth at higher speed: slow=%v fast=%v", slow.Population, fast.Population)
	}
}

func TestCheckProgressionOneStepOnly(t *testing.T) {
	state := civ.NewGodState("Ada", testNow)
	state.Resources = civ.Resources{Population: 1e9, Knowledge: 1e9}

	next, tr := CheckProgression(state)
	if tr == nil || next.CurrentEra != civ.BronzeAge {
		t.Fatalf("Expected a single advance to BronzeAge, got %s", next.CurrentEra)
	}
	if tr.From != civ.StoneAge || tr.To != civ.BronzeAge {
		t.Errorf("Unexpected transition %+v", tr)
	}

	next.CurrentEra = civ.FutureAge
	if after, tr := CheckProgression(next); tr != nil || after.CurrentEra != civ.FutureAge {
		t.Errorf("Terminal era must not advance")
	}
}

func TestCheckProgressionIgnoresRawMaterials(t *testing.T) {
	state := civ.NewGodState("Ada", testNow)
	state.Resources = civ.Resources{Population: 50, Knowledge: 100}

	if next, tr := CheckProgression(state); tr == nil || next.CurrentEra != civ.BronzeAge {
		t.Errorf("Population and knowledge alone must gate the advance")
	}

	state.Resources = civ.Resources{Wood: 1e9, Stone: 1e9, Food: 1e9, Population: 49.99, Knowledge: 1e9}
	if _, tr := CheckProgression(state); tr != nil {
		t.Errorf("Expected no advance below the population threshold")
	}
}

func TestApplyInterventionRejectsWithoutChange(t *testing.T) {
	state := civ.NewGodState("Ada", testNow)
	state.Karma = 40
	before := state

	after, _, err := ApplyIntervention(state, power.Flood)
	if err != ErrInsufficientKarma {
		t.Fatalf("Expected ErrInsufficientKarma, got %v", err)
	}
	if !reflect.DeepEqual(after, before) {
		t.Errorf("Rejected intervention changed state: %+v", after)
	}

	if _, _, err := ApplyIntervention(state, power.ID("smite")); err != ErrUnknownPower {
		t.Errorf("Expected ErrUnknownPower, got %v", err)
	}
}

func TestApplyInterventionMergesPatch(t *testing.T) {
	state := civ.NewGodState("Ada", testNow)
	state.Resources = civ.Resources{Wood: 300, Stone: 7, Food: 100, Population: 40}

	after, p, err := ApplyIntervention(state, power.Meteor)
	if err != nil {
		t.Fatalf("ApplyIntervention: %v", err)
	}
	if after.Karma != 1000-p.Cost || after.InterventionCount != 1 {
		t.Errorf("Expected karma debit and count, got karma=%d count=%d", after.Karma, after.InterventionCount)
	}
	if after.Resources.Population != 20 || after.Resources.Wood != 0 {
		t.Errorf("Expected meteor to halve population and zero wood, got %+v", after.Resources)
	}
	if after.Resources.Stone != 7 || after.Resources.Food != 100 {
		t.Errorf("Keys outside the patch must be untouched, got %+v", after.Resources)
	}
}

func TestKarmaNeverLeavesRange(t *testing.T) {
	state := civ.NewGodState("Ada", testNow)
	spent := 0
	ids := []power.ID{power.Tech, power.Bloom, power.Meteor, power.Plague, power.Flood, power.ResourceRain}
	for i := 0; i < 100; i++ {
		id := ids[i%len(ids)]
		next, p, err := ApplyIntervention(state, id)
		if err == nil {
			spent += p.Cost
		}
		state = next
		if state.Karma < 0 || state.Karma > civ.MaxKarma {
			t.Fatalf("Karma left range: %d", state.Karma)
		}
	}
	if state.Karma != civ.ClampKarma(civ.InitialKarma-spent) {
		t.Errorf("Expected karma %d, got %d", civ.InitialKarma-spent, state.Karma)
	}
}
