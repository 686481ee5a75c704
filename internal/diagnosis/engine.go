// Package diagnosis implements candidate filtering, scoring and the
// two-phase question selection of a triage session.
package diagnosis

import (
	"errors"
	"math"
	"sort"

	"symptom-triage/internal/catalog"
)

var (
	ErrNoConfirmedSymptoms = errors.New("no confirmed symptoms")
	ErrNoMoreQuestions     = errors.New("no more relevant questions")
	ErrUnknownSymptom      = errors.New("unknown symptom")
	ErrExcludedSymptom     = errors.New("symptom does not apply to the patient's sex")
)

type Options struct {
	// GuidedMinimum is the number of answered questions after which the
	// guided phase hands over to the adaptive one.
	GuidedMinimum int
	// TopCandidates is how many ranked conditions vote for the next
	// adaptive question.
	TopCandidates int
	// ConfidentScore and ConfidentCoverage gate the confident terminal.
	ConfidentScore    float64
	ConfidentCoverage float64
}

func DefaultOptions() Options {
	return Options{
		GuidedMinimum:     15,
		TopCandidates:     5,
		ConfidentScore:    70,
		ConfidentCoverage: 0.8,
	}
}

// Question is a yes/no question about one symptom.
type Question struct {
	Symptom  string `json:"symptom"`
	Group    string `json:"group,omitempty"`
	Relevant bool   `json:"relevant"`
}

type StepKind int

const (
	// StepQuestion carries the next question to ask.
	StepQuestion StepKind = iota
	// StepConfident means the leading candidate is convincing enough that
	// no further question is needed.
	StepConfident
)

// Step is the outcome of Engine.Next.
type Step struct {
	Kind     StepKind
	Question Question
	Leading  *Candidate
}

type Engine struct {
	catalog *catalog.Catalog
	opts    Options
}

func NewEngine(cat *catalog.Catalog, opts Options) *Engine {
	def := DefaultOptions()
	if opts.GuidedMinimum <= 0 {
		opts.GuidedMinimum = def.GuidedMinimum
	}
	if opts.TopCandidates <= 0 {
		opts.TopCandidates = def.TopCandidates
	}
	if opts.ConfidentScore <= 0 {
		opts.ConfidentScore = def.ConfidentScore
	}
	if opts.ConfidentCoverage <= 0 {
		opts.ConfidentCoverage = def.ConfidentCoverage
	}
	return &Engine{catalog: cat, opts: opts}
}

// Answer records a yes/no answer for symptom. It reports false when the
// symptom had already been asked.
func (e *Engine) Answer(st *State, symptom string, present bool) (bool, error) {
	if !e.catalog.HasSymptom(symptom) {
		return false, ErrUnknownSymptom
	}
	if catalog.ExcludedSymptom(st.Sex, symptom) {
		return false, ErrExcludedSymptom
	}
	return st.Record(symptom, present, e.opts.GuidedMinimum), nil
}

// Candidates filters the catalog with the state's confirmed symptoms.
func (e *Engine) Candidates(st *State) ([]*catalog.Condition, error) {
	confirmed := st.ConfirmedSymptoms(e.catalog)
	if len(confirmed) == 0 {
		return nil, ErrNoConfirmedSymptoms
	}
	return Filter(e.catalog, confirmed, st.Reported, st.Sex), nil
}

// Next selects the next question. The guided phase walks symptoms by
// prevalence among the candidates; once its budget or its list runs out the
// state moves to the adaptive phase for good, within the same call.
func (e *Engine) Next(st *State) (Step, error) {
	cands, err := e.Candidates(st)
	if err != nil {
		return Step{}, err
	}

	if st.phase() == PhaseGuided {
		if st.QuestionsAsked < e.opts.GuidedMinimum {
			if q, ok := e.guided(st, cands); ok {
				return Step{Kind: StepQuestion, Question: q}, nil
			}
		}
		st.Phase = PhaseAdaptive
	}
	return e.adaptive(st, cands)
}

// eligible reports whether symptom may still be asked.
func (e *Engine) eligible(st *State, symptom string) bool {
	if st.WasAsked(symptom) || catalog.ExcludedSymptom(st.Sex, symptom) {
		return false
	}
	return !st.GroupConfirmed(catalog.GroupOf(symptom))
}

func (e *Engine) guided(st *State, cands []*catalog.Condition) (Question, bool) {
	counts := prevalence(e.catalog, cands)
	order := make([]int, 0, len(counts))
	for i, n := range counts {
		if n > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })

	symptoms := e.catalog.Symptoms()
	for _, i := range order {
		if s := symptoms[i]; e.eligible(st, s) {
			return Question{Symptom: s, Group: catalog.GroupOf(s), Relevant: true}, true
		}
	}
	return Question{}, false
}

func (e *Engine) adaptive(st *State, cands []*catalog.Condition) (Step, error) {
	ranked := e.rank(st, cands, true)

	if len(ranked) > 0 {
		top := ranked[0]
		if top.Score >= e.opts.ConfidentScore && top.Coverage() >= e.opts.ConfidentCoverage {
			return Step{Kind: StepConfident, Leading: &top}, nil
		}
	}

	tally := make(map[string]float64)
	var order []string
	for _, c := range ranked[:min(e.opts.TopCandidates, len(ranked))] {
		for _, s := range c.pending {
			if _, ok := tally[s]; !ok {
				order = append(order, s)
			}
			tally[s] += c.Score
		}
	}
	if len(order) > 0 {
		best := order[0]
		for _, s := range order[1:] {
			if tally[s] > tally[best] {
				best = s
			}
		}
		return Step{Kind: StepQuestion, Question: Question{Symptom: best, Group: catalog.GroupOf(best), Relevant: true}}, nil
	}

	if q, ok := e.mostDiscriminating(st, cands); ok {
		return Step{Kind: StepQuestion, Question: q}, nil
	}
	return Step{}, ErrNoMoreQuestions
}

// mostDiscriminating picks the askable symptom whose prevalence among the
// candidates is closest to one half.
func (e *Engine) mostDiscriminating(st *State, cands []*catalog.Condition) (Question, bool) {
	if len(cands) == 0 {
		return Question{}, false
	}
	counts := prevalence(e.catalog, cands)
	best, bestDist := -1, 1.0
	for i, s := range e.catalog.Symptoms() {
		if !e.eligible(st, s) {
			continue
		}
		d := math.Abs(0.5 - float64(counts[i])/float64(len(cands)))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Question{}, false
	}
	s := e.catalog.Symptoms()[best]
	return Question{Symptom: s, Group: catalog.GroupOf(s), Relevant: false}, true
}

// rank scores candidates and sorts them by decreasing classical score,
// keeping catalog order between equal scores. Zero scores are dropped.
func (e *Engine) rank(st *State, cands []*catalog.Condition, withPending bool) []Candidate {
	user := e.catalog.Vector(st.Values)
	symptoms := e.catalog.Symptoms()

	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		m := Classical(c.Symptoms, user.Symptoms)
		if m.Score == 0 {
			continue
		}
		cand := newCandidate(c, m)
		if withPending {
			for i, s := range symptoms {
				if c.Symptoms.Has(i) && !user.Symptoms.Has(i) && e.eligible(st, s) {
					cand.pending = append(cand.pending, s)
				}
			}
		}
		out = append(out, cand)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func prevalence(cat *catalog.Catalog, cands []*catalog.Condition) []int {
	counts := make([]int, len(cat.Symptoms()))
	for _, c := range cands {
		for i := range counts {
			if c.Symptoms.Has(i) {
				counts[i]++
			}
		}
	}
	return counts
}
