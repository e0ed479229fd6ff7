package transition

import (
	"math/rand"
	"testing"
)

func TestPickerIsDeterministicForSeed(t *testing.T) {
	a := NewPicker(rand.New(rand.NewSource(42)))
	b := NewPicker(rand.New(rand.NewSource(42)))
	for i := 0; i < 20; i++ {
		if ea, eb := a.Pick(), b.Pick(); ea != eb {
			t.Fatalf("pick %d differs: %s vs %s", i, ea, eb)
		}
	}
}

func TestPickerCoversAllEffects(t *testing.T) {
	p := NewPicker(rand.New(rand.NewSource(7)))
	seen := make(map[Effect]int)
	for i := 0; i < 600; i++ {
		seen[p.Pick()]++
	}
	for _, effect := range Effects {
		if seen[effect] == 0 {
			t.Fatalf("effect %s never picked", effect)
		}
	}
}

func TestPickerRestrictedSet(t *testing.T) {
	p := NewPicker(rand.New(rand.NewSource(1)), Zoom)
	for i := 0; i < 5; i++ {
		if got := p.Pick(); got != Zoom {
			t.Fatalf("expected zoom, got %s", got)
		}
	}
}
