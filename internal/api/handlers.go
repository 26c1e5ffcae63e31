package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wortschatz/wortschatz/internal/store"
	"github.com/wortschatz/wortschatz/internal/types"
	"github.com/wortschatz/wortschatz/internal/validation"
)

// Handler implements the API handlers
type Handler struct {
	store   store.Store
	apiKey  string
	version string
}

// NewHandler creates a new Handler backed by the given store.
func NewHandler(s store.Store, apiKey, version string) *Handler {
	return &Handler{
		store:   s,
		apiKey:  apiKey,
		version: version,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{
		Status:      "healthy",
		Version:     h.version,
		PhraseCount: h.store.Count(),
		DueCount:    len(h.store.GetDuePhrases(0)),
	}

	writeJSON(w, http.StatusOK, resp)
}

// AddPhrase handles POST /api/v1/phrases
func (h *Handler) AddPhrase(w http.ResponseWriter, r *http.Request) {
	var req types.AddPhraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validation.ValidatePhraseText("german", req.German); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	result, err := h.store.AddPhrase(req.German)
	if err != nil {
		slog.Error("add phrase failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	status := http.StatusOK
	if result.IsNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

// Review handles POST /api/v1/reviews
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	var req types.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	c.Add(validation.ValidatePhraseID("phrase_id", req.PhraseID))
	c.Add(validation.ValidateQuality("quality", req.Quality))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	// Unknown ids are deliberately not an error: the caller may hold a
	// stale reference and the session should carry on regardless.
	if err := h.store.UpdateReview(req.PhraseID, req.Quality); err != nil {
		slog.Error("review failed", "request_id", RequestIDFromContext(r.Context()),
			"phrase_id", req.PhraseID, "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Vocabulary handles GET /api/v1/phrases
func (h *Handler) Vocabulary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sortBy := q.Get("sort_by")
	if sortBy == "" {
		sortBy = string(types.SortID)
	}
	if err := validation.ValidateSortKey("sort_by", sortBy); err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields",
			[]validation.ValidationError{*err})
		return
	}

	limit, ok := parseLimit(q.Get("limit"))
	if !ok {
		WriteProblem(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	ascending := true
	if v := q.Get("ascending"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, "ascending must be a boolean")
			return
		}
		ascending = b
	}

	phrases := h.store.GetVocabulary(limit, types.SortKey(sortBy), ascending)
	writeJSON(w, http.StatusOK, types.PhraseList{Phrases: phrases, Total: len(phrases)})
}

// DuePhrases handles GET /api/v1/phrases/due
func (h *Handler) DuePhrases(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		WriteProblem(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	phrases := h.store.GetDuePhrases(limit)
	writeJSON(w, http.StatusOK, types.PhraseList{Phrases: phrases, Total: len(phrases)})
}

// RemovePhrases handles DELETE /api/v1/phrases
func (h *Handler) RemovePhrases(w http.ResponseWriter, r *http.Request) {
	var req types.RemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if len(req.IDs) == 0 {
		WriteProblem(w, r, http.StatusBadRequest, "ids must not be empty")
		return
	}

	result, err := h.store.RemovePhrases(req.IDs)
	if err != nil {
		slog.Error("remove phrases failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// parseLimit parses an optional limit query parameter. Empty means no limit.
func parseLimit(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
