package consultation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"symptom-triage/internal/catalog"
	"symptom-triage/internal/diagnosis"
	"symptom-triage/internal/patient"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type StartSessionRequest struct {
	Age       int      `json:"age"`
	Sex       string   `json:"sex"`
	Weight    float64  `json:"weight"`
	Height    float64  `json:"height"`
	Symptoms  []string `json:"symptoms"`
	Complaint string   `json:"complaint"`
}

type StartSessionResponse struct {
	SessionID      string            `json:"session_id"`
	ConfirmedCount int               `json:"confirmed_count"`
	Confirmed      []string          `json:"confirmed"`
	Matches        map[string]string `json:"matches"`
}

type QuestionResponse struct {
	Status   string               `json:"status"`
	Symptom  string               `json:"symptom,omitempty"`
	Label    string               `json:"label,omitempty"`
	Group    string               `json:"group,omitempty"`
	Relevant bool                 `json:"relevant"`
	Leading  *diagnosis.Candidate `json:"leading,omitempty"`
}

// Question statuses.
const (
	StatusQuestion  = "question"
	StatusComplete  = "complete"
	StatusExhausted = "exhausted"
)

type AnswerRequest struct {
	Symptom string `json:"symptom"`
	Present *bool  `json:"present"`
}

type AnswerResponse struct {
	Recorded bool `json:"recorded"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *patient.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, diagnosis.ErrUnknownSymptom), errors.Is(err, diagnosis.ErrExcludedSymptom):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoValidSymptoms), errors.Is(err, diagnosis.ErrNoConfirmedSymptoms):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrDeliveryUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	sex, err := patient.ParseSex(req.Sex)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := h.svc.StartSession(r.Context(), StartRequest{
		Profile:   patient.Profile{Age: req.Age, Sex: sex, Weight: req.Weight, Height: req.Height},
		Symptoms:  req.Symptoms,
		Complaint: req.Complaint,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, StartSessionResponse{
		SessionID:      res.ID.String(),
		ConfirmedCount: len(res.Confirmed),
		Confirmed:      res.Confirmed,
		Matches:        res.Trace,
	})
}

func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	step, err := h.svc.NextQuestion(r.Context(), id)
	switch {
	case errors.Is(err, diagnosis.ErrNoMoreQuestions):
		writeJSON(w, http.StatusOK, QuestionResponse{Status: StatusExhausted})
		return
	case err != nil:
		writeServiceError(w, err)
		return
	}

	if step.Kind == diagnosis.StepConfident {
		writeJSON(w, http.StatusOK, QuestionResponse{Status: StatusComplete, Leading: step.Leading})
		return
	}
	q := step.Question
	writeJSON(w, http.StatusOK, QuestionResponse{
		Status:   StatusQuestion,
		Symptom:  q.Symptom,
		Label:    catalog.Label(q.Symptom),
		Group:    q.Group,
		Relevant: q.Relevant,
	})
}

func (h *Handler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Symptom == "" || req.Present == nil {
		writeError(w, http.StatusBadRequest, "symptom and present are required")
		return
	}

	recorded, err := h.svc.AnswerQuestion(r.Context(), id, req.Symptom, *req.Present)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AnswerResponse{Recorded: recorded})
}

func (h *Handler) GetDiagnosis(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	rep, err := h.svc.GetDiagnosis(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if rep.Candidates == nil {
		rep.Candidates = []diagnosis.Candidate{}
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	data, err := h.svc.RenderReport(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=report_%s.pdf", id))
	w.Write(data)
}

func (h *Handler) SendReport(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.svc.SendReport(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.svc.EndSession(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/question", h.NextQuestion)
			r.Post("/answers", h.AnswerQuestion)
			r.Get("/diagnosis", h.GetDiagnosis)
			r.Get("/report", h.GetReport)
			r.Post("/report/send", h.SendReport)
			r.Delete("/", h.EndSession)
		})
	})
}
