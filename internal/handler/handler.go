package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jwchung/hagwon/internal/clock"
	"github.com/jwchung/hagwon/internal/gate"
	"github.com/jwchung/hagwon/internal/grader"
	appI18n "github.com/jwchung/hagwon/internal/i18n"
	"github.com/jwchung/hagwon/internal/model"
	"github.com/jwchung/hagwon/internal/store"
)

// defaultReportDays is the rolling window used when a report request does
// not specify a date range.
const defaultReportDays = 28

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	gate     gate.Gate
	clock    clock.Clock
	validate *validator.Validate

	// now is swappable so tests can pin the submission instant.
	now func() time.Time
}

// New creates a new Handler backed by the given store and clock.
func New(s *store.Store, clk clock.Clock) *Handler {
	return &Handler{
		store:    s,
		gate:     gate.Gate{Clock: clk, Attempts: s},
		clock:    clk,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/submissions", h.handleCreateSubmission)
	r.Get("/submissions/gate", h.handleGateCheck)
	r.Delete("/submissions/{attemptID}", h.handleDeleteAttempt)
	r.Get("/students/{studentID}/report", h.handleStudentReport)
	r.Post("/keys", h.handleCreateKey)
	r.Get("/keys/{category}/{targetID}", h.handleGetKey)
	r.Put("/keys/{keyID}", h.handleUpdateKey)
	r.Post("/assignments", h.handleCreateAssignments)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type submissionRequest struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	Category  string `json:"category" validate:"required"`
	TargetID  int64  `json:"target_id" validate:"gte=0"`
	Answers   []int  `json:"answers" validate:"required,dive,gte=0,lte=5"`
}

// rejectionResponse mirrors the gate decision plus a localized message for
// direct display by the calling surface.
type rejectionResponse struct {
	Allowed     bool        `json:"allowed"`
	Reason      gate.Reason `json:"reason"`
	Message     string      `json:"message"`
	LogicalDate string      `json:"logical_date"`
	Deadline    time.Time   `json:"deadline"`
}

type submissionResponse struct {
	Allowed     bool               `json:"allowed"`
	AttemptID   int64              `json:"attempt_id"`
	LogicalDate string             `json:"logical_date"`
	Deadline    time.Time          `json:"deadline"`
	Result      model.GradedResult `json:"result"`
}

func (h *Handler) rejection(r *http.Request, d gate.Decision) rejectionResponse {
	msgID := "RejectAlreadySubmitted"
	if d.Reason == gate.ReasonDeadlinePassed {
		msgID = "RejectDeadlinePassed"
	}
	return rejectionResponse{
		Reason:      d.Reason,
		Message:     appI18n.T(r.Context(), msgID),
		LogicalDate: d.LogicalDate,
		Deadline:    d.Deadline,
	}
}

// handleCreateSubmission runs the full accept path: gate, grade, persist.
// The store's uniqueness constraint backs up the gate check, so a racing
// duplicate surfaces as the same rejection.
func (h *Handler) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := model.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	targetID := req.TargetID
	if !category.RequiresTarget() {
		targetID = 0
	}

	now := h.now()
	decision, err := h.gate.CanSubmit(req.StudentID, category, targetID, now)
	if err != nil {
		slog.Error("gate check failed", "student_id", req.StudentID, "category", category, "error", err)
		writeError(w, http.StatusInternalServerError, "gate check failed")
		return
	}
	if !decision.Allowed {
		writeJSON(w, http.StatusConflict, h.rejection(r, decision))
		return
	}

	key, err := h.store.GetAnswerKey(category, targetID)
	if err != nil {
		slog.Error("fetch answer key", "category", category, "target_id", targetID, "error", err)
		writeError(w, http.StatusInternalServerError, "fetch answer key failed")
		return
	}
	if key == nil {
		// Integration bug, not a user-facing rejection: the key must be
		// authored before submissions open.
		slog.Error("no answer key configured", "category", category, "target_id", targetID)
		writeError(w, http.StatusInternalServerError, "no answer key configured for this assessment")
		return
	}

	result, err := grader.Grade(req.Answers, *key)
	if err != nil {
		slog.Error("grading failed", "key_id", key.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "grading failed: "+err.Error())
		return
	}

	attemptID, err := h.store.CreateAttempt(model.SubmissionAttempt{
		StudentID:    req.StudentID,
		Category:     category,
		TargetID:     targetID,
		KeyID:        key.ID,
		Answers:      req.Answers,
		LogicalDate:  decision.LogicalDate,
		SubmittedAt:  now,
		Score:        result.Score,
		CorrectCount: result.CorrectCount,
		Details:      result.Details,
	})
	if errors.Is(err, store.ErrDuplicateAttempt) {
		decision.Allowed = false
		decision.Reason = gate.ReasonAlreadySubmitted
		writeJSON(w, http.StatusConflict, h.rejection(r, decision))
		return
	}
	if err != nil {
		slog.Error("persist attempt", "student_id", req.StudentID, "error", err)
		writeError(w, http.StatusInternalServerError, "persist attempt failed")
		return
	}

	slog.Info("accepted submission",
		"attempt_id", attemptID,
		"student_id", req.StudentID,
		"category", category,
		"logical_date", decision.LogicalDate,
		"score", result.Score,
	)
	writeJSON(w, http.StatusCreated, submissionResponse{
		Allowed:     true,
		AttemptID:   attemptID,
		LogicalDate: decision.LogicalDate,
		Deadline:    decision.Deadline,
		Result:      result,
	})
}

// handleGateCheck is the read-only pre-check surfaces use before showing
// the submission form.
func (h *Handler) handleGateCheck(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.ParseInt(r.URL.Query().Get("student_id"), 10, 64)
	if err != nil || studentID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid student_id")
		return
	}
	category, err := model.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var targetID int64
	if raw := r.URL.Query().Get("target_id"); raw != "" {
		if targetID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid target_id")
			return
		}
	}

	decision, err := h.gate.CanSubmit(studentID, category, targetID, h.now())
	if err != nil {
		slog.Error("gate check failed", "student_id", studentID, "error", err)
		writeError(w, http.StatusInternalServerError, "gate check failed")
		return
	}
	if !decision.Allowed {
		writeJSON(w, http.StatusOK, h.rejection(r, decision))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"allowed":      true,
		"logical_date": decision.LogicalDate,
		"deadline":     decision.Deadline,
		"message": appI18n.Td(r.Context(), "SubmitBy", map[string]any{
			"Deadline": decision.Deadline.Format("2006-01-02 15:04"),
		}),
	})
}

func (h *Handler) handleStudentReport(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.ParseInt(chi.URLParam(r, "studentID"), 10, 64)
	if err != nil || studentID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid student ID")
		return
	}
	category, err := model.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.now()
	to := r.URL.Query().Get("to")
	if to == "" {
		to = h.clock.LogicalDate(now)
	}
	from := r.URL.Query().Get("from")
	if from == "" {
		from = h.clock.LogicalDate(now.AddDate(0, 0, -(defaultReportDays - 1)))
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse(clock.DateLayout, d); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date "+d)
			return
		}
	}

	report, err := h.store.BuildStudentReport(studentID, category, from, to)
	if err != nil {
		slog.Error("build report", "student_id", studentID, "category", category, "error", err)
		writeError(w, http.StatusInternalServerError, "build report failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleDeleteAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "attemptID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid attempt ID")
		return
	}

	attempt, err := h.store.GetAttempt(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if attempt == nil {
		writeError(w, http.StatusNotFound, "attempt not found")
		return
	}
	if err := h.store.DeleteAttempt(id); err != nil {
		slog.Error("delete attempt", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete attempt failed")
		return
	}
	slog.Info("deleted attempt", "id", id, "student_id", attempt.StudentID, "logical_date", attempt.LogicalDate)
	w.WriteHeader(http.StatusNoContent)
}
