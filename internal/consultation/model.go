package consultation

import (
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"

	"symptom-triage/internal/diagnosis"
	"symptom-triage/internal/patient"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrNoValidSymptoms     = errors.New("no reported symptom matched the catalog")
	ErrDeliveryUnavailable = errors.New("report delivery is not configured")
)

// Session represents one triage conversation.
type Session struct {
	ID      uuid.UUID       `json:"id"`
	Profile patient.Profile `json:"profile"`

	// Diagnostic record: values, asked set, groups, counter and phase.
	State diagnosis.State `json:"state"`

	// Trace maps each raw term the patient typed to the symptom it matched.
	Trace map[string]string `json:"trace,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy, so callers never share mutable state with a
// repository.
func (s *Session) Clone() *Session {
	c := *s
	c.State = s.State.Clone()
	c.Trace = maps.Clone(s.Trace)
	return &c
}
