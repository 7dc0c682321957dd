package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"legal-letter-ai/internal/domain"
	"legal-letter-ai/internal/domain/model"
)

// startGenerationHandler accepts a generation payload, creates (or reuses)
// the letter row and queues the job. Responds 202: the caller polls the
// status endpoint for the outcome.
func (s *Server) startGenerationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload model.GenerationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if claims, ok := ClaimsFrom(ctx); ok {
		if payload.FirmID == "" {
			payload.FirmID = claims.FirmID
		}
		if payload.RequestedBy == "" {
			payload.RequestedBy = claims.UserID
		}
	}

	job, letter, err := s.genUC.StartGeneration(ctx, payload)
	if err != nil {
		s.writeError(w, err, "Failed to start generation")
		return
	}

	response := struct {
		JobID    string `json:"jobId"`
		LetterID string `json:"letterId"`
		Status   string `json:"status"`
	}{
		JobID:    job.ID,
		LetterID: letter.ID,
		Status:   "queued",
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(response)
}

func (s *Server) generationStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	letterID := chi.URLParam(r, "letterID")

	st, err := s.genUC.GetStatus(ctx, letterID)
	if err != nil {
		s.writeError(w, err, "Failed to get generation status")
		return
	}

	response := struct {
		Status       string                  `json:"status"`
		Progress     int                     `json:"progress"`
		AttemptsMade int                     `json:"attemptsMade"`
		Result       *model.GenerationResult `json:"result,omitempty"`
		Letter       *model.Letter           `json:"letter,omitempty"`
	}{
		Status:       st.Status,
		Progress:     st.Progress,
		AttemptsMade: st.AttemptsMade,
		Result:       st.Result,
		Letter:       st.Letter,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func (s *Server) cancelGenerationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	letterID := chi.URLParam(r, "letterID")

	if err := s.genUC.CancelGeneration(ctx, letterID); err != nil {
		s.writeError(w, err, "Failed to cancel generation")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "cancelled", "letterId": letterID})
}

func (s *Server) queueStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.genUC.QueueStats(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to get queue stats")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeError maps domain errors to HTTP statuses; anything unrecognized is a
// 500 with a generic message so internals never leak to callers.
func (s *Server) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrDuplicateJob):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrCannotCancel):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrQueueUnavailable), errors.Is(err, domain.ErrQueuePaused):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.log.Error().Err(err).Msg(fallback)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}
