package diagnosis

import (
	"sort"

	"symptom-triage/internal/catalog"
)

// Advisory messages attached to a report.
const (
	AdvisoryNeedMoreQuestions = "More questions are needed before a diagnosis can be offered."
	AdvisoryNoMatches         = "Not enough matches for a reliable diagnosis."
	AdvisoryLowSimilarity     = "Low similarity with known conditions. Consult a physician for an accurate diagnosis."
	AdvisoryPreliminary       = "Preliminary diagnosis based on partial matches. Consult a physician for confirmation."
)

// Report thresholds.
const (
	MinQuestionsForDiagnosis = 5
	InteractiveTop           = 3
	OfflineTop               = 5
	OfflineOthersMinScore    = 40
	OfflineOthersMax         = 5
	LowSimilarityScore       = 60
	PreliminaryCoverage      = 0.7
)

// Candidate is a ranked condition.
type Candidate struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Treatment      string  `json:"treatment"`
	Coincidence    int     `json:"coincidence"`
	ConditionTotal int     `json:"condition_total"`
	Score          float64 `json:"score"`
	ClassicalScore float64 `json:"classical_score,omitempty"`
	NeighborScore  float64 `json:"neighbor_score,omitempty"`

	pending []string
}

func newCandidate(c *catalog.Condition, m Match) Candidate {
	return Candidate{
		Name:           c.Name,
		Description:    c.Description,
		Treatment:      c.Treatment,
		Coincidence:    m.Coincidence,
		ConditionTotal: m.ConditionTotal,
		Score:          m.Score,
	}
}

// Coverage is the share of the condition's symptoms that were confirmed.
func (c Candidate) Coverage() float64 {
	if c.ConditionTotal == 0 {
		return 0
	}
	return float64(c.Coincidence) / float64(c.ConditionTotal)
}

// Report is the ranked outcome of a session.
type Report struct {
	Candidates        []Candidate `json:"candidates"`
	Others            []Candidate `json:"others,omitempty"`
	Advisory          string      `json:"advisory,omitempty"`
	QuestionsAsked    int         `json:"questions_asked"`
	SymptomsConfirmed int         `json:"symptoms_confirmed"`
}

// Ready reports whether enough questions were answered for a ranking.
func Ready(st *State) bool {
	return st.QuestionsAsked >= MinQuestionsForDiagnosis
}

// Diagnose ranks candidates by classical score and keeps the top three.
// Before enough questions were answered it returns only an advisory.
func (e *Engine) Diagnose(st *State) Report {
	r := Report{
		QuestionsAsked:    st.QuestionsAsked,
		SymptomsConfirmed: len(st.ConfirmedSymptoms(e.catalog)),
	}
	if !Ready(st) {
		r.Advisory = AdvisoryNeedMoreQuestions
		return r
	}

	// With nothing confirmed there are no candidates and the ranking is empty.
	cands, _ := e.Candidates(st)
	ranked := e.rank(st, cands, false)
	r.Candidates = ranked[:min(InteractiveTop, len(ranked))]

	switch {
	case len(r.Candidates) == 0:
		r.Advisory = AdvisoryNoMatches
	case r.Candidates[0].Score < LowSimilarityScore:
		r.Advisory = AdvisoryLowSimilarity
	case r.Candidates[0].Coverage() < PreliminaryCoverage:
		r.Advisory = AdvisoryPreliminary
	}
	return r
}

// BlendedReport ranks every candidate by the blend of the classical score
// and the nearest-neighbour similarity. It keeps the top five plus up to five
// others scoring at least 40.
func (e *Engine) BlendedReport(st *State) (Report, error) {
	r := Report{
		QuestionsAsked:    st.QuestionsAsked,
		SymptomsConfirmed: len(st.ConfirmedSymptoms(e.catalog)),
	}
	cands, err := e.Candidates(st)
	if err != nil {
		return r, err
	}

	user := e.catalog.Vector(st.Values)
	index := NewNeighborIndex(cands, len(e.catalog.Symptoms()))

	all := make([]Candidate, 0, len(cands))
	for _, n := range index.Query(user) {
		m := Classical(n.Condition.Symptoms, user.Symptoms)
		c := newCandidate(n.Condition, m)
		c.ClassicalScore = m.Score
		c.NeighborScore = NeighborScore(n.Distance)
		c.Score = Blend(c.ClassicalScore, c.NeighborScore)
		all = append(all, c)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })

	r.Candidates = all[:min(OfflineTop, len(all))]
	for _, c := range all[len(r.Candidates):] {
		if len(r.Others) == OfflineOthersMax {
			break
		}
		if c.Score >= OfflineOthersMinScore {
			r.Others = append(r.Others, c)
		}
	}
	if len(r.Candidates) == 0 {
		r.Advisory = AdvisoryNoMatches
	}
	return r, nil
}
