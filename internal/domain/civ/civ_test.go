package civ

import (
	"testing"
	"time"
)

func TestEraOrdering(t *testing.T) {
	next, ok := StoneAge.Next()
	if !ok || next != BronzeAge {
		t.Fatalf("Expected BronzeAge after StoneAge, got %s (ok=%v)", next, ok)
	}
	if _, ok := FutureAge.Next(); ok {
		t.Errorf("Expected FutureAge to be terminal")
	}
	if Era("Unknown").Valid() {
		t.Errorf("Expected unknown era to be invalid")
	}
	for i, era := range EraOrder {
		if era.Index() != i {
			t.Errorf("Expected %s at index %d, got %d", era, i, era.Index())
		}
	}
}

func TestPatchMergeReplacesOnlyPresentKeys(t *testing.T) {
	r := Resources{Wood: 10, Stone: 20, Food: 30, Population: 40, Knowledge: 50}
	out := ResourcePatch{Wood: Set(0), Knowledge: Set(99)}.Merge(r)

	want := Resources{Wood: 0, Stone: 20, Food: 30, Population: 40, Knowledge: 99}
	if out != want {
		t.Errorf("Expected %+v, got %+v", want, out)
	}
	if !(ResourcePatch{}).Empty() {
		t.Errorf("Expected zero patch to be empty")
	}
}

func TestClampKarma(t *testing.T) {
	cases := map[int]int{-5: 0, 0: 0, 500: 500, 1000: 1000, 1500: 1000}
	for in, want := range cases {
		if got := ClampKarma(in); got != want {
			t.Errorf("ClampKarma(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNewGodState(t *testing.T) {
	now := time.Now()
	s := NewGodState("Ada", now)
	if s.Karma != 1000 || s.CurrentEra != StoneAge || s.InterventionCount != 0 {
		t.Fatalf("Unexpected initial state: %+v", s)
	}
	if s.Resources != (Resources{Food: 100, Population: 10}) {
		t.Errorf("Unexpected initial resources: %+v", s.Resources)
	}
	if !s.StartTime.Equal(now) {
		t.Errorf("Expected start time to be preserved")
	}
}

func TestRarityFor(t *testing.T) {
	cases := []struct {
		karma int
		want  Rarity
	}{
		{0, RarityLost},
		{1, RarityCommon},
		{299, RarityCommon},
		{300, RarityRare},
		{600, RarityEpic},
		{899, RarityEpic},
		{900, RarityDivine},
		{1000, RarityDivine},
	}
	for _, c := range cases {
		if got := RarityFor(c.karma); got != c.want {
			t.Errorf("RarityFor(%d) = %s, want %s", c.karma, got, c.want)
		}
	}
}
