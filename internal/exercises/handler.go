package exercises

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tilhona/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	vars := mux.Vars(r)
	exerciseID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exercise ID"})
		return
	}

	var req models.CheckAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.AttemptKey == "" {
		req.AttemptKey = r.Header.Get("Idempotency-Key")
	}

	resp, err := h.service.CheckAnswer(r.Context(), userID, exerciseID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetExercise(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exercise ID"})
		return
	}

	ex, err := h.service.GetExercise(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ex)
}

func (h *Handler) ListExercises(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := models.ExerciseListRequest{
		Page:     intQueryParam(query, "page", 1),
		PageSize: intQueryParam(query, "page_size", 20),
	}
	if k := query.Get("kind"); k != "" {
		kind := models.ExerciseKind(k)
		if !models.ValidKinds[kind] {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exercise kind"})
			return
		}
		req.Kind = &kind
	}
	if d := query.Get("difficulty"); d != "" {
		diff := models.Difficulty(d)
		if !models.ValidDifficulties[diff] {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid difficulty"})
			return
		}
		req.Difficulty = &diff
	}
	if tag := query.Get("tag"); tag != "" {
		req.Tag = &tag
	}

	resp, err := h.service.ListExercises(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list exercises"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	query := r.URL.Query()
	var exerciseID *int64
	if e := query.Get("exercise_id"); e != "" {
		id, err := strconv.ParseInt(e, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exercise_id"})
			return
		}
		exerciseID = &id
	}

	resp, err := h.service.ListAttempts(r.Context(), userID, exerciseID,
		intQueryParam(query, "page", 1), intQueryParam(query, "page_size", 20))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list attempts"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	progress, err := h.service.GetProgress(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load progress"})
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// writeDomainError maps the core's typed errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var invalid *models.InvalidInputError
	var evalErr *models.EvaluationError

	switch {
	case errors.Is(err, models.ErrExerciseNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Exercise not found"})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: invalid.Reason})
	case errors.Is(err, models.ErrCapabilityUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "Speech evaluation is currently unavailable"})
	case errors.As(err, &evalErr):
		log.Printf("WARN: evaluation failed: %v", evalErr.Err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Evaluation failed"})
	default:
		log.Printf("WARN: check-answer error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

func intQueryParam(query url.Values, key string, fallback int) int {
	if v := query.Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
