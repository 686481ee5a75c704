package patient

import "symptom-triage/internal/catalog"

// BMICategory is the risk attribute implied by a BMI value. Normal weight
// carries no flag.
type BMICategory string

const (
	Underweight BMICategory = catalog.RiskUnderweight
	NormalBMI   BMICategory = ""
	Overweight  BMICategory = catalog.RiskOverweight
	Obese       BMICategory = catalog.RiskObese
)

func CategorizeBMI(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return Underweight
	case bmi < 25:
		return NormalBMI
	case bmi < 30:
		return Overweight
	default:
		return Obese
	}
}

// AgeBracket is the age risk attribute. Brackets are closed and contiguous:
// ≤12, 13–18, 19–59, ≥60.
type AgeBracket string

const (
	Child      AgeBracket = catalog.RiskChild
	Adolescent AgeBracket = catalog.RiskAdolescent
	Adult      AgeBracket = catalog.RiskAdult
	Senior     AgeBracket = catalog.RiskSenior
)

func BracketAge(age int) AgeBracket {
	switch {
	case age <= 12:
		return Child
	case age <= 18:
		return Adolescent
	case age <= 59:
		return Adult
	default:
		return Senior
	}
}

// RiskVector derives the risk attribute flags of a profile. Every risk
// attribute is present in the result with value 0 or 1.
func RiskVector(p Profile) (map[string]int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	v := make(map[string]int, len(catalog.RiskAttributes))
	for _, r := range catalog.RiskAttributes {
		v[r] = 0
	}

	if c := CategorizeBMI(p.BMI()); c != NormalBMI {
		v[string(c)] = 1
	}
	if p.Sex == catalog.Male {
		v[catalog.RiskMale] = 1
	} else {
		v[catalog.RiskFemale] = 1
	}
	v[string(BracketAge(p.Age))] = 1
	return v, nil
}
