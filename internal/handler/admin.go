package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jwchung/hagwon/internal/clock"
	"github.com/jwchung/hagwon/internal/model"
	"github.com/jwchung/hagwon/internal/store"
)

// Answer-key authoring and assignment bookkeeping. These are administrator
// surfaces; the tutoring platform's management UI calls them.

type keyRequest struct {
	Category     string `json:"category" validate:"required"`
	TargetID     int64  `json:"target_id" validate:"gte=0"`
	Answers      []int  `json:"answers" validate:"required,dive,gte=1,lte=5"`
	BonusIndices []int  `json:"bonus_indices" validate:"dive,gte=1"`
}

func (h *Handler) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
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

	key := model.AnswerKey{
		Category:     category,
		TargetID:     req.TargetID,
		Answers:      req.Answers,
		BonusIndices: req.BonusIndices,
	}
	// Hard server-side check: length, choice range, and for mock exams the
	// weighted total summing to exactly 100.
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.store.CreateAnswerKey(key)
	if err != nil {
		writeError(w, http.StatusConflict, "key already exists for this category and target")
		return
	}
	key.ID = id
	writeJSON(w, http.StatusCreated, key)
}

func (h *Handler) handleGetKey(w http.ResponseWriter, r *http.Request) {
	category, err := model.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	targetID, err := strconv.ParseInt(chi.URLParam(r, "targetID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target ID")
		return
	}

	key, err := h.store.GetAnswerKey(category, targetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if key == nil {
		writeError(w, http.StatusNotFound, "key not found")
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (h *Handler) handleUpdateKey(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "keyID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key ID")
		return
	}

	existing, err := h.store.GetAnswerKeyByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "key not found")
		return
	}

	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated := *existing
	updated.Answers = req.Answers
	updated.BonusIndices = req.BonusIndices
	if err := updated.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.store.UpdateAnswerKey(updated)
	switch {
	case errors.Is(err, store.ErrKeyInUse):
		// Editing a referenced key would silently re-score history.
		writeError(w, http.StatusConflict, "key is frozen: graded attempts already reference it")
		return
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "key not found")
		return
	case err != nil:
		slog.Error("update key", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "update key failed")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type assignmentsRequest struct {
	StudentID int64    `json:"student_id" validate:"required,gt=0"`
	Category  string   `json:"category" validate:"required"`
	Dates     []string `json:"dates" validate:"required,min=1"`
}

func (h *Handler) handleCreateAssignments(w http.ResponseWriter, r *http.Request) {
	var req assignmentsRequest
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
	for _, d := range req.Dates {
		if _, err := time.Parse(clock.DateLayout, d); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date "+d)
			return
		}
	}

	for _, d := range req.Dates {
		if err := h.store.AddAssignment(req.StudentID, category, d); err != nil {
			slog.Error("add assignment", "student_id", req.StudentID, "date", d, "error", err)
			writeError(w, http.StatusInternalServerError, "add assignment failed")
			return
		}
	}
	slog.Info("recorded assignments", "student_id", req.StudentID, "category", category, "count", len(req.Dates))
	w.WriteHeader(http.StatusNoContent)
}
