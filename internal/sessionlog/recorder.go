// Package sessionlog keeps a one-row summary of every finished session.
package sessionlog

import (
	"context"
	"time"

	"symptom-triage/internal/diagnosis"
)

// Record summarizes a finished session by its leading condition.
type Record struct {
	SessionID         string
	EndedAt           time.Time
	Condition         string
	ClassicalScore    float64
	NeighborScore     float64
	Score             float64
	QuestionsAsked    int
	SymptomsConfirmed int
}

// NewRecord builds the record of a blended report. It reports false when the
// report ranked nothing.
func NewRecord(sessionID string, r diagnosis.Report, at time.Time) (Record, bool) {
	if len(r.Candidates) == 0 {
		return Record{}, false
	}
	top := r.Candidates[0]
	return Record{
		SessionID:         sessionID,
		EndedAt:           at,
		Condition:         top.Name,
		ClassicalScore:    top.ClassicalScore,
		NeighborScore:     top.NeighborScore,
		Score:             top.Score,
		QuestionsAsked:    r.QuestionsAsked,
		SymptomsConfirmed: r.SymptomsConfirmed,
	}, true
}

type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// NopRecorder drops records. It is used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Record) error { return nil }
