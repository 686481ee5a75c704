package diagnosis

import "symptom-triage/internal/catalog"

// Filter returns the conditions presenting at least one confirmed symptom.
// Conditions exclusive to the opposite sex are dropped unless one of the
// reported symptoms is on their row.
func Filter(cat *catalog.Catalog, confirmed, reported []string, sex catalog.Sex) []*catalog.Condition {
	want := symptomSet(cat, confirmed)
	evidence := symptomSet(cat, reported)

	var out []*catalog.Condition
	conds := cat.Conditions()
	for i := range conds {
		c := &conds[i]
		if !c.Symptoms.Intersects(want) {
			continue
		}
		if catalog.ExcludedCondition(sex, c.Name) && !c.Symptoms.Intersects(evidence) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// StripExcluded removes symptoms exclusive to the opposite sex.
func StripExcluded(symptoms []string, sex catalog.Sex) []string {
	out := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		if !catalog.ExcludedSymptom(sex, s) {
			out = append(out, s)
		}
	}
	return out
}

func symptomSet(cat *catalog.Catalog, symptoms []string) catalog.Bitset {
	b := catalog.NewBitset(len(cat.Symptoms()))
	for _, s := range symptoms {
		if i, ok := cat.SymptomIndex(s); ok {
			b.Set(i)
		}
	}
	return b
}
