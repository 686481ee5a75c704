package patient

import (
	"fmt"
	"strings"

	"symptom-triage/internal/catalog"
)

// ValidationError reports a profile field that cannot be used.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Profile holds the demographic data a session is started with.
// Weight is in kilograms, height in metres.
type Profile struct {
	Age    int         `json:"age"`
	Sex    catalog.Sex `json:"sex"`
	Weight float64     `json:"weight"`
	Height float64     `json:"height"`
}

// ParseSex accepts M/F and the common spelled-out forms.
func ParseSex(s string) (catalog.Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "masculino", "hombre":
		return catalog.Male, nil
	case "f", "female", "femenino", "mujer":
		return catalog.Female, nil
	}
	return "", &ValidationError{Field: "sex", Reason: fmt.Sprintf("unrecognized value %q, expected M or F", s)}
}

func (p Profile) Validate() error {
	switch {
	case p.Age < 0:
		return &ValidationError{Field: "age", Reason: "must not be negative"}
	case !p.Sex.Valid():
		return &ValidationError{Field: "sex", Reason: fmt.Sprintf("unrecognized value %q, expected M or F", p.Sex)}
	case p.Weight <= 0:
		return &ValidationError{Field: "weight", Reason: "must be positive"}
	case p.Height <= 0:
		return &ValidationError{Field: "height", Reason: "must be positive"}
	}
	return nil
}

func (p Profile) BMI() float64 {
	return p.Weight / (p.Height * p.Height)
}
