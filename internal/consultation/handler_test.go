package consultation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"symptom-triage/internal/diagnosis"
)

func newTestRouter(t *testing.T) (http.Handler, *fixture) {
	f := newFixture(t)
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		RegisterRoutes(r, NewHandler(f.svc))
	})
	return r, f
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func startSession(t *testing.T, h http.Handler, complaint string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/sessions", StartSessionRequest{
		Age: 30, Sex: "M", Weight: 70, Height: 1.75, Complaint: complaint,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[StartSessionResponse](t, rec).SessionID
}

func TestStartSessionHandler(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/sessions", StartSessionRequest{
		Age: 30, Sex: "masculino", Weight: 70, Height: 1.75, Symptoms: []string{"cabeza"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[StartSessionResponse](t, rec)
	if resp.ConfirmedCount != 1 || resp.Matches["cabeza"] != "dolor_de_cabeza" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if _, err := uuid.Parse(resp.SessionID); err != nil {
		t.Fatalf("invalid session id %q", resp.SessionID)
	}
}

func TestStartSessionHandlerErrors(t *testing.T) {
	h, _ := newTestRouter(t)
	tests := []struct {
		name string
		body any
		code int
	}{
		{"bad sex", StartSessionRequest{Age: 30, Sex: "x", Weight: 70, Height: 1.7, Complaint: "tos"}, http.StatusBadRequest},
		{"bad height", StartSessionRequest{Age: 30, Sex: "F", Weight: 70, Height: 0, Complaint: "tos"}, http.StatusBadRequest},
		{"no match", StartSessionRequest{Age: 30, Sex: "F", Weight: 70, Height: 1.7, Complaint: "xyzzy"}, http.StatusUnprocessableEntity},
		{"bad json", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/sessions", tt.body)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestQuestionAndAnswerHandlers(t *testing.T) {
	h, _ := newTestRouter(t)
	id := startSession(t, h, "tos")

	rec := do(t, h, http.MethodGet, "/api/sessions/"+id+"/question", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	q := decode[QuestionResponse](t, rec)
	if q.Status != StatusQuestion || q.Symptom == "" || q.Label == "" {
		t.Fatalf("unexpected question %+v", q)
	}

	present := true
	rec = do(t, h, http.MethodPost, "/api/sessions/"+id+"/answers", AnswerRequest{Symptom: q.Symptom, Present: &present})
	if rec.Code != http.StatusOK || !decode[AnswerResponse](t, rec).Recorded {
		t.Fatalf("expected recorded answer, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/sessions/"+id+"/answers", AnswerRequest{Symptom: q.Symptom, Present: &present})
	if rec.Code != http.StatusOK || decode[AnswerResponse](t, rec).Recorded {
		t.Fatalf("expected idempotent acknowledgement, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/sessions/"+id+"/answers", AnswerRequest{Symptom: "hipo", Present: &present})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown symptom, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/sessions/"+id+"/answers", map[string]string{"symptom": "tos"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without present, got %d", rec.Code)
	}
}

func TestQuestionHandlerComplete(t *testing.T) {
	h, f := newTestRouter(t)
	id := startSession(t, h, "cabeza, náuseas")
	// skip the guided phase
	_, err := f.repo.Update(context.Background(), uuid.MustParse(id), func(s *Session) error {
		s.State.Phase = diagnosis.PhaseAdaptive
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	rec := do(t, h, http.MethodGet, "/api/sessions/"+id+"/question", nil)
	q := decode[QuestionResponse](t, rec)
	if q.Status != StatusComplete || q.Leading == nil || q.Leading.Name != "Migraña" {
		t.Fatalf("expected complete with Migraña, got %+v", q)
	}
}

func TestDiagnosisHandler(t *testing.T) {
	h, _ := newTestRouter(t)
	id := startSession(t, h, "cabeza")

	rec := do(t, h, http.MethodGet, "/api/sessions/"+id+"/diagnosis", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rep := decode[diagnosis.Report](t, rec)
	if rep.Advisory != diagnosis.AdvisoryNeedMoreQuestions || len(rep.Candidates) != 0 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestReportHandlers(t *testing.T) {
	h, f := newTestRouter(t)
	id := startSession(t, h, "tos")

	rec := do(t, h, http.MethodGet, "/api/sessions/"+id+"/report", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("expected pdf, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = do(t, h, http.MethodPost, "/api/sessions/"+id+"/report/send", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	f.reports.err = ErrDeliveryUnavailable
	rec = do(t, h, http.MethodPost, "/api/sessions/"+id+"/report/send", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestEndSessionHandler(t *testing.T) {
	h, _ := newTestRouter(t)
	id := startSession(t, h, "tos")

	if rec := do(t, h, http.MethodDelete, "/api/sessions/"+id, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/sessions/"+id, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/sessions/"+id+"/question", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/sessions/not-a-uuid/question", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
