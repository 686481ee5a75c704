package consultation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"symptom-triage/internal/diagnosis"
	"symptom-triage/internal/patient"
	"symptom-triage/internal/sessionlog"
	"symptom-triage/internal/symptom"
)

// SymptomResolver maps free-text terms onto the catalog vocabulary.
type SymptomResolver interface {
	Resolve(terms []string) symptom.Resolution
}

// ReportService renders a session's diagnosis and delivers it to the doctor.
type ReportService interface {
	Render(s Session, r diagnosis.Report) ([]byte, error)
	SendDoctorReport(ctx context.Context, s Session, r diagnosis.Report) error
}

// StartRequest opens a session. Symptoms and Complaint are both optional but
// at least one term must resolve.
type StartRequest struct {
	Profile   patient.Profile
	Symptoms  []string
	Complaint string
}

type StartResult struct {
	ID        uuid.UUID
	Confirmed []string
	Trace     map[string]string
}

type Service interface {
	StartSession(ctx context.Context, req StartRequest) (*StartResult, error)
	NextQuestion(ctx context.Context, id uuid.UUID) (diagnosis.Step, error)
	AnswerQuestion(ctx context.Context, id uuid.UUID, attr string, present bool) (bool, error)
	GetDiagnosis(ctx context.Context, id uuid.UUID) (diagnosis.Report, error)
	EndSession(ctx context.Context, id uuid.UUID) error
	RenderReport(ctx context.Context, id uuid.UUID) ([]byte, error)
	SendReport(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo      Repository
	engine    *diagnosis.Engine
	resolver  SymptomResolver
	reportSvc ReportService
	recorder  sessionlog.Recorder
}

func NewService(repo Repository, engine *diagnosis.Engine, resolver SymptomResolver, report ReportService, recorder sessionlog.Recorder) Service {
	if recorder == nil {
		recorder = sessionlog.NopRecorder{}
	}
	return &service{
		repo:      repo,
		engine:    engine,
		resolver:  resolver,
		reportSvc: report,
		recorder:  recorder,
	}
}

func (s *service) StartSession(ctx context.Context, req StartRequest) (*StartResult, error) {
	risks, err := patient.RiskVector(req.Profile)
	if err != nil {
		return nil, err
	}

	terms := append([]string{}, req.Symptoms...)
	if req.Complaint != "" {
		terms = append(terms, symptom.SplitComplaint(req.Complaint)...)
	}
	res := s.resolver.Resolve(terms)
	confirmed := diagnosis.StripExcluded(res.Symptoms, req.Profile.Sex)
	if len(confirmed) == 0 {
		return nil, ErrNoValidSymptoms
	}

	now := time.Now()
	sess := &Session{
		ID:        uuid.New(),
		Profile:   req.Profile,
		State:     diagnosis.NewState(req.Profile.Sex, risks, confirmed),
		Trace:     res.Trace,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("session started", "session_id", sess.ID, "confirmed", len(confirmed))
	return &StartResult{ID: sess.ID, Confirmed: confirmed, Trace: res.Trace}, nil
}

// NextQuestion selects the next question. The phase change the engine may
// make is saved even when it ends with ErrNoMoreQuestions.
func (s *service) NextQuestion(ctx context.Context, id uuid.UUID) (diagnosis.Step, error) {
	var (
		step    diagnosis.Step
		stepErr error
	)
	_, err := s.repo.Update(ctx, id, func(sess *Session) error {
		step, stepErr = s.engine.Next(&sess.State)
		return nil
	})
	if err != nil {
		return diagnosis.Step{}, err
	}
	if stepErr != nil {
		return diagnosis.Step{}, stepErr
	}

	if step.Kind == diagnosis.StepConfident {
		slog.Info("leading condition is conclusive", "session_id", id, "condition", step.Leading.Name, "score", step.Leading.Score)
	} else {
		slog.Debug("question selected", "session_id", id, "symptom", step.Question.Symptom, "relevant", step.Question.Relevant)
	}
	return step, nil
}

// AnswerQuestion records an answer. It reports false when the symptom had
// already been answered, leaving the session unchanged.
func (s *service) AnswerQuestion(ctx context.Context, id uuid.UUID, attr string, present bool) (bool, error) {
	var recorded bool
	sess, err := s.repo.Update(ctx, id, func(sess *Session) error {
		ok, err := s.engine.Answer(&sess.State, attr, present)
		recorded = ok
		return err
	})
	if err != nil {
		return false, err
	}
	slog.Debug("answer recorded", "session_id", id, "symptom", attr, "present", present,
		"new", recorded, "phase", sess.State.Phase, "questions", sess.State.QuestionsAsked)
	return recorded, nil
}

func (s *service) GetDiagnosis(ctx context.Context, id uuid.UUID) (diagnosis.Report, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return diagnosis.Report{}, err
	}
	return s.engine.Diagnose(&sess.State), nil
}

// EndSession removes the session. Sessions that reached a ranked diagnosis
// leave an audit record behind.
func (s *service) EndSession(ctx context.Context, id uuid.UUID) error {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if diagnosis.Ready(&sess.State) {
		rep, err := s.engine.BlendedReport(&sess.State)
		if err != nil {
			slog.Warn("no report for ended session", "session_id", id, "error", err)
		} else if rec, ok := sessionlog.NewRecord(id.String(), rep, time.Now()); ok {
			if err := s.recorder.Record(ctx, rec); err != nil {
				slog.Error("failed to record session", "session_id", id, "error", err)
			}
		}
	}
	slog.Info("session ended", "session_id", id, "questions", sess.State.QuestionsAsked)
	return nil
}

func (s *service) RenderReport(ctx context.Context, id uuid.UUID) ([]byte, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.reportSvc.Render(*sess, s.engine.Diagnose(&sess.State))
}

func (s *service) SendReport(ctx context.Context, id uuid.UUID) error {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reportSvc.SendDoctorReport(ctx, *sess, s.engine.Diagnose(&sess.State)); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	slog.Info("report sent", "session_id", id)
	return nil
}
