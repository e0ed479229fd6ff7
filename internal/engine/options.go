package engine

import (
	"math/rand"

	"timed-quiz-service/internal/domain"
)

// OptionStatus is how an option is rendered.
type OptionStatus string

const (
	OptionSelectable    OptionStatus = "selectable"
	OptionEliminated    OptionStatus = "eliminated"
	OptionCorrect       OptionStatus = "correct"
	OptionSelectedWrong OptionStatus = "selected-wrong"
	OptionWrong         OptionStatus = "wrong"
)

type OptionView struct {
	Text        string       `json:"text"`
	Status      OptionStatus `json:"status"`
	Interactive bool         `json:"interactive"`
}

// OptionSet mediates the answer choices of one question.
type OptionSet struct {
	options    []string
	correct    string
	eliminated map[string]bool
	used       bool
}

func NewOptionSet(q domain.Question) *OptionSet {
	return &OptionSet{
		options:    append([]string(nil), q.Options...),
		correct:    q.CorrectOption,
		eliminated: make(map[string]bool),
	}
}

// Selectable returns the options still on offer, in display order.
func (s *OptionSet) Selectable() []string {
	out := make([]string, 0, len(s.options))
	for _, opt := range s.options {
		if !s.eliminated[opt] {
			out = append(out, opt)
		}
	}
	return out
}

// CanSelect reports whether opt is a live choice.
func (s *OptionSet) CanSelect(opt string) bool {
	for _, o := range s.options {
		if o == opt {
			return !s.eliminated[opt]
		}
	}
	return false
}

// Eliminate hides up to k incorrect options, never the correct one and never below two choices.
// It works once per question; calls that could remove nothing do not spend the power-up.
func (s *OptionSet) Eliminate(k int, rnd *rand.Rand) []string {
	if s.used || k <= 0 {
		return nil
	}
	var candidates []string
	for _, opt := range s.Selectable() {
		if opt != s.correct {
			candidates = append(candidates, opt)
		}
	}
	n := k
	if room := len(s.Selectable()) - domain.MinOptions; n > room {
		n = room
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	if n <= 0 {
		return nil
	}

	rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, opt := range candidates[:n] {
		s.eliminated[opt] = true
	}
	s.used = true
	return s.Eliminated()
}

// Used reports whether the elimination power-up was spent on this question.
func (s *OptionSet) Used() bool {
	return s.used
}

// Eliminated returns hidden options in display order.
func (s *OptionSet) Eliminated() []string {
	var out []string
	for _, opt := range s.options {
		if s.eliminated[opt] {
			out = append(out, opt)
		}
	}
	return out
}

// View renders the options. With reveal false the correct answer stays hidden and live options
// are interactive; with reveal true nothing is interactive and selected marks the user's pick.
func (s *OptionSet) View(reveal bool, selected *string) []OptionView {
	views := make([]OptionView, 0, len(s.options))
	for _, opt := range s.options {
		v := OptionView{Text: opt}
		switch {
		case !reveal && s.eliminated[opt]:
			v.Status = OptionEliminated
		case !reveal:
			v.Status = OptionSelectable
			v.Interactive = true
		case opt == s.correct:
			v.Status = OptionCorrect
		case selected != nil && *selected == opt:
			v.Status = OptionSelectedWrong
		case s.eliminated[opt]:
			v.Status = OptionEliminated
		default:
			v.Status = OptionWrong
		}
		views = append(views, v)
	}
	return views
}
