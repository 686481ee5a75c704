package consultation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symptom-triage/internal/catalog"
	"symptom-triage/internal/diagnosis"
	"symptom-triage/internal/patient"
	"symptom-triage/internal/sessionlog"
	"symptom-triage/internal/symptom"
)

type fakeReports struct {
	mu   sync.Mutex
	sent []diagnosis.Report
	err  error
}

func (f *fakeReports) Render(s Session, r diagnosis.Report) ([]byte, error) {
	return []byte("%PDF-" + s.ID.String()), nil
}

func (f *fakeReports) SendDoctorReport(_ context.Context, _ Session, r diagnosis.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, r)
	return nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []sessionlog.Record
}

func (f *fakeRecorder) Record(_ context.Context, rec sessionlog.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

type fixture struct {
	svc      Service
	repo     *MemoryRepository
	reports  *fakeReports
	recorder *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.NewBuilder([]string{
		"fiebre", "fiebre_alta", "tos", "dolor_de_cabeza", "dolor_muscular",
		"congestion_nasal", "nauseas", "vomitos", "dolor_en_el_seno", "sangrado_vaginal",
	}).
		Add("Gripe", "Infección viral", "Reposo", []string{"fiebre_alta", "tos", "dolor_de_cabeza", "dolor_muscular", "congestion_nasal"}, nil).
		Add("Migraña", "Cefalea recurrente", "Analgésicos", []string{"dolor_de_cabeza", "nauseas"}, nil).
		Add("Gastritis", "Inflamación gástrica", "Dieta", []string{"nauseas", "vomitos"}, nil).
		Add("cáncer de mama femenino", "Tumor mamario", "Oncología", []string{"dolor_en_el_seno"}, []string{catalog.RiskFemale}).
		Build()
	require.NoError(t, err)

	f := &fixture{
		repo:     NewMemoryRepository(),
		reports:  &fakeReports{},
		recorder: &fakeRecorder{},
	}
	engine := diagnosis.NewEngine(cat, diagnosis.DefaultOptions())
	f.svc = NewService(f.repo, engine, symptom.NewResolver(cat.Symptoms()), f.reports, f.recorder)
	return f
}

var adultMale = patient.Profile{Age: 30, Sex: catalog.Male, Weight: 70, Height: 1.75}

func (f *fixture) start(t *testing.T, p patient.Profile, complaint string) uuid.UUID {
	t.Helper()
	res, err := f.svc.StartSession(context.Background(), StartRequest{Profile: p, Complaint: complaint})
	require.NoError(t, err)
	return res.ID
}

func TestStartSessionResolvesComplaint(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.StartSession(context.Background(), StartRequest{Profile: adultMale, Complaint: "cabeza"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dolor_de_cabeza"}, res.Confirmed)
	assert.Equal(t, map[string]string{"cabeza": "dolor_de_cabeza"}, res.Trace)

	sess, err := f.repo.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.State.Value("dolor_de_cabeza"))
	assert.Equal(t, 1, sess.State.Value(catalog.RiskMale))
	assert.Equal(t, 1, sess.State.Value(catalog.RiskAdult))
	assert.Zero(t, sess.State.QuestionsAsked)
	assert.Equal(t, diagnosis.PhaseGuided, sess.State.Phase)
}

func TestStartSessionErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, StartRequest{Profile: patient.Profile{Age: 30, Sex: catalog.Male, Weight: 0, Height: 1.7}, Complaint: "tos"})
	var verr *patient.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "weight", verr.Field)

	_, err = f.svc.StartSession(ctx, StartRequest{Profile: adultMale, Complaint: "xyzzy"})
	assert.ErrorIs(t, err, ErrNoValidSymptoms)

	// the only match is exclusive to the other sex
	_, err = f.svc.StartSession(ctx, StartRequest{Profile: adultMale, Symptoms: []string{"sangrado_vaginal"}})
	assert.ErrorIs(t, err, ErrNoValidSymptoms)
	assert.Zero(t, f.repo.Len())
}

func TestQuestionLoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.start(t, adultMale, "dolor de cabeza, tos")

	asked := map[string]bool{}
	for i := 0; i < 20; i++ {
		step, err := f.svc.NextQuestion(ctx, id)
		if errors.Is(err, diagnosis.ErrNoMoreQuestions) {
			break
		}
		require.NoError(t, err)
		if step.Kind == diagnosis.StepConfident {
			require.NotNil(t, step.Leading)
			break
		}
		sym := step.Question.Symptom
		assert.False(t, asked[sym], "re-offered %s", sym)
		asked[sym] = true

		recorded, err := f.svc.AnswerQuestion(ctx, id, sym, false)
		require.NoError(t, err)
		assert.True(t, recorded)
	}
	assert.NotEmpty(t, asked)

	rep, err := f.svc.GetDiagnosis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, len(asked), rep.QuestionsAsked)
}

func TestAnswerQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.start(t, adultMale, "tos")

	recorded, err := f.svc.AnswerQuestion(ctx, id, "nauseas", true)
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = f.svc.AnswerQuestion(ctx, id, "nauseas", false)
	require.NoError(t, err)
	assert.False(t, recorded)

	_, err = f.svc.AnswerQuestion(ctx, id, "hipo", true)
	assert.ErrorIs(t, err, diagnosis.ErrUnknownSymptom)
	_, err = f.svc.AnswerQuestion(ctx, id, "sangrado_vaginal", true)
	assert.ErrorIs(t, err, diagnosis.ErrExcludedSymptom)
	_, err = f.svc.AnswerQuestion(ctx, uuid.New(), "tos", true)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	sess, err := f.repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.State.Value("nauseas"))
	assert.Equal(t, 1, sess.State.QuestionsAsked)
}

func TestGetDiagnosisAdvisoryBeforeFiveAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.start(t, adultMale, "cabeza")
	for _, s := range []string{"tos", "vomitos", "fiebre"} {
		_, err := f.svc.AnswerQuestion(ctx, id, s, false)
		require.NoError(t, err)
	}

	rep, err := f.svc.GetDiagnosis(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, diagnosis.AdvisoryNeedMoreQuestions, rep.Advisory)
	assert.Empty(t, rep.Candidates)
	assert.Equal(t, 3, rep.QuestionsAsked)
}

func TestEndSessionRecordsRankedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.start(t, adultMale, "cabeza, náuseas")
	for _, s := range []string{"tos", "vomitos", "fiebre", "fiebre_alta", "congestion_nasal"} {
		_, err := f.svc.AnswerQuestion(ctx, id, s, false)
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.EndSession(ctx, id))
	require.Len(t, f.recorder.records, 1)
	rec := f.recorder.records[0]
	assert.Equal(t, id.String(), rec.SessionID)
	assert.Equal(t, "Migraña", rec.Condition)
	assert.Equal(t, 100.0, rec.ClassicalScore)
	assert.Equal(t, 5, rec.QuestionsAsked)

	_, err := f.svc.GetDiagnosis(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.svc.EndSession(ctx, id), ErrSessionNotFound)
}

func TestEndSessionEarlySkipsRecord(t *testing.T) {
	f := newFixture(t)
	id := f.start(t, adultMale, "tos")
	require.NoError(t, f.svc.EndSession(context.Background(), id))
	assert.Empty(t, f.recorder.records)
}

func TestReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.start(t, adultMale, "tos")

	data, err := f.svc.RenderReport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-"+id.String(), string(data))

	require.NoError(t, f.svc.SendReport(ctx, id))
	assert.Len(t, f.reports.sent, 1)

	f.reports.err = ErrDeliveryUnavailable
	assert.ErrorIs(t, f.svc.SendReport(ctx, id), ErrDeliveryUnavailable)
	assert.ErrorIs(t, f.svc.SendReport(ctx, uuid.New()), ErrSessionNotFound)
}
