package transition

import "math/rand"

// Effect names a visual transition played when the question changes.
type Effect string

const (
	Fade       Effect = "fade"
	SlideLeft  Effect = "slide-left"
	SlideRight Effect = "slide-right"
	Zoom       Effect = "zoom"
	Flip       Effect = "flip"
	Dissolve   Effect = "dissolve"
)

// Effects is the default set the picker draws from.
var Effects = []Effect{Fade, SlideLeft, SlideRight, Zoom, Flip, Dissolve}

// Picker chooses transition effects uniformly from a fixed set.
// It is not safe for concurrent use; each session owns its own picker.
type Picker struct {
	rnd     *rand.Rand
	effects []Effect
}

// NewPicker returns a picker over effects (Effects when empty) driven by rnd.
func NewPicker(rnd *rand.Rand, effects ...Effect) *Picker {
	if len(effects) == 0 {
		effects = Effects
	}
	return &Picker{rnd: rnd, effects: effects}
}

// Pick returns the next effect.
func (p *Picker) Pick() Effect {
	return p.effects[p.rnd.Intn(len(p.effects))]
}
