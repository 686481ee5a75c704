package sessionlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symptom-triage/internal/diagnosis"
)

func TestNewRecordUsesLeadingCandidate(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rep := diagnosis.Report{
		Candidates: []diagnosis.Candidate{
			{Name: "Migraña", ClassicalScore: 100, NeighborScore: 91.7, Score: 96.7},
			{Name: "Gripe", ClassicalScore: 35, NeighborScore: 70.8, Score: 49.3},
		},
		QuestionsAsked:    6,
		SymptomsConfirmed: 2,
	}

	rec, ok := NewRecord("abc", rep, at)
	require.True(t, ok)
	assert.Equal(t, Record{
		SessionID:         "abc",
		EndedAt:           at,
		Condition:         "Migraña",
		ClassicalScore:    100,
		NeighborScore:     91.7,
		Score:             96.7,
		QuestionsAsked:    6,
		SymptomsConfirmed: 2,
	}, rec)
}

func TestNewRecordEmptyReport(t *testing.T) {
	_, ok := NewRecord("abc", diagnosis.Report{QuestionsAsked: 5}, time.Now())
	assert.False(t, ok)
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	assert.NoError(t, r.Record(context.Background(), Record{SessionID: "abc"}))
}
