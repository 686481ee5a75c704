package diagnosis

import (
	"slices"

	"symptom-triage/internal/catalog"
)

// Phase is the question-selection phase of a session.
type Phase string

const (
	PhaseGuided   Phase = "guided"
	PhaseAdaptive Phase = "adaptive"
)

// State is the diagnostic record of one session. Values holds attribute
// truth values; a missing attribute reads as 0, so Asked is what tells an
// unanswered attribute from a negative answer.
type State struct {
	Sex             catalog.Sex    `json:"sex"`
	Values          map[string]int `json:"values"`
	Reported        []string       `json:"reported"`
	Asked           []string       `json:"asked"`
	ConfirmedGroups []string       `json:"confirmed_groups"`
	QuestionsAsked  int            `json:"questions_asked"`
	Phase           Phase          `json:"phase"`
}

// NewState seeds a session from its risk flags and the symptoms the patient
// reported. Reported symptoms count as asked and confirmed but not as
// questions.
func NewState(sex catalog.Sex, risks map[string]int, reported []string) State {
	st := State{
		Sex:      sex,
		Values:   make(map[string]int, len(risks)+len(reported)),
		Reported: slices.Clone(reported),
		Asked:    slices.Clone(reported),
		Phase:    PhaseGuided,
	}
	for k, v := range risks {
		st.Values[k] = v
	}
	for _, s := range reported {
		st.Values[s] = 1
		st.confirmGroup(s)
	}
	return st
}

func (s *State) Value(attr string) int {
	return s.Values[attr]
}

func (s *State) WasAsked(symptom string) bool {
	return slices.Contains(s.Asked, symptom)
}

func (s *State) GroupConfirmed(group string) bool {
	return group != "" && slices.Contains(s.ConfirmedGroups, group)
}

// ConfirmedSymptoms lists the symptoms of cat currently set to 1.
func (s *State) ConfirmedSymptoms(cat *catalog.Catalog) []string {
	var out []string
	for _, sym := range cat.Symptoms() {
		if s.Values[sym] == 1 {
			out = append(out, sym)
		}
	}
	return out
}

// Record stores an answer. A positive answer confirms the symptom's group;
// a negative one never clears an attribute already set to 1. It reports
// false, leaving the state untouched, when the symptom was already asked.
func (s *State) Record(symptom string, present bool, guidedMinimum int) bool {
	if s.WasAsked(symptom) {
		return false
	}
	if s.Values == nil {
		s.Values = make(map[string]int)
	}
	if present {
		s.Values[symptom] = 1
		s.confirmGroup(symptom)
	} else if s.Values[symptom] != 1 {
		s.Values[symptom] = 0
	}
	s.Asked = append(s.Asked, symptom)
	s.QuestionsAsked++
	if s.phase() == PhaseGuided && s.QuestionsAsked >= guidedMinimum {
		s.Phase = PhaseAdaptive
	}
	return true
}

func (s *State) confirmGroup(symptom string) {
	if g := catalog.GroupOf(symptom); g != "" && !slices.Contains(s.ConfirmedGroups, g) {
		s.ConfirmedGroups = append(s.ConfirmedGroups, g)
	}
}

func (s *State) phase() Phase {
	if s.Phase == "" {
		return PhaseGuided
	}
	return s.Phase
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.Values = make(map[string]int, len(s.Values))
	for k, v := range s.Values {
		c.Values[k] = v
	}
	c.Reported = slices.Clone(s.Reported)
	c.Asked = slices.Clone(s.Asked)
	c.ConfirmedGroups = slices.Clone(s.ConfirmedGroups)
	return c
}
