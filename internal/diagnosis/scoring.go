package diagnosis

import (
	"sort"
	"strconv"

	"symptom-triage/internal/catalog"
)

// Match is the classical overlap between a condition and a patient.
type Match struct {
	Coincidence    int
	ConditionTotal int
	UserTotal      int
	Score          float64
}

// Coverage is the share of the condition's symptoms the patient confirmed.
func (m Match) Coverage() float64 {
	if m.ConditionTotal == 0 {
		return 0
	}
	return float64(m.Coincidence) / float64(m.ConditionTotal)
}

// Classical scores a condition against the patient's confirmed symptoms as
// the mean of the two overlap ratios, rounded to one decimal.
func Classical(condition, user catalog.Bitset) Match {
	m := Match{
		Coincidence:    condition.AndCount(user),
		ConditionTotal: condition.Count(),
		UserTotal:      user.Count(),
	}
	if m.Coincidence == 0 || m.ConditionTotal == 0 || m.UserTotal == 0 {
		return m
	}
	pe := float64(m.Coincidence) / float64(m.ConditionTotal)
	pu := float64(m.Coincidence) / float64(m.UserTotal)
	m.Score = Round1(100 * (pe + pu) / 2)
	return m
}

// Blend weights of the combined score.
const (
	ClassicalWeight = 0.6
	NeighborWeight  = 0.4
)

// NeighborScore converts a normalized Hamming distance into a 0–100 score.
func NeighborScore(distance float64) float64 {
	return Round1(100 * (1 - distance))
}

func Blend(classical, neighbor float64) float64 {
	return Round1(ClassicalWeight*classical + NeighborWeight*neighbor)
}

// Round1 rounds to one decimal place. Exact halves go to the even digit.
func Round1(x float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	return v
}

// Neighbor is one result of a NeighborIndex query.
type Neighbor struct {
	Condition *catalog.Condition
	Distance  float64
}

// NeighborIndex answers nearest-neighbour queries over the concatenated
// symptom and risk vectors of a candidate set, using Hamming distance.
type NeighborIndex struct {
	conditions []*catalog.Condition
	width      int
}

func NewNeighborIndex(conditions []*catalog.Condition, symptomCount int) *NeighborIndex {
	return &NeighborIndex{
		conditions: conditions,
		width:      symptomCount + len(catalog.RiskAttributes),
	}
}

// Hamming is the fraction of attribute positions where c and v differ.
func (ix *NeighborIndex) Hamming(c *catalog.Condition, v catalog.Vector) float64 {
	if ix.width == 0 {
		return 0
	}
	diff := c.Symptoms.XorCount(v.Symptoms) + c.Risks.XorCount(v.Risks)
	return float64(diff) / float64(ix.width)
}

// Query returns every indexed condition ordered by increasing distance to v.
func (ix *NeighborIndex) Query(v catalog.Vector) []Neighbor {
	out := make([]Neighbor, len(ix.conditions))
	for i, c := range ix.conditions {
		out[i] = Neighbor{Condition: c, Distance: ix.Hamming(c, v)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}
