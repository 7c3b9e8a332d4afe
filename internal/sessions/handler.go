package sessions

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
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

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	detail, err := h.service.Start(r.Context(), userID, req)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, detail)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := sessionRequest(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), sessionID, userID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := sessionRequest(w, r)
	if !ok {
		return
	}

	var req models.SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.SubmitResponse(r.Context(), sessionID, userID, req)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := sessionRequest(w, r)
	if !ok {
		return
	}

	// The body is optional; submit works with no payload at all.
	var req models.SubmitSessionRequest
	json.NewDecoder(r.Body).Decode(&req)

	detail, err := h.service.Grade(r.Context(), sessionID, userID, req.Language)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := sessionRequest(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Abandon(r.Context(), sessionID, userID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// sessionRequest pulls the authenticated user and the path's session ID,
// writing the error response itself when either is missing.
func sessionRequest(w http.ResponseWriter, r *http.Request) (userID, sessionID int64, ok bool) {
	userID, ok = getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Not authenticated"})
		return 0, 0, false
	}

	sessionID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid session ID"})
		return 0, 0, false
	}
	return userID, sessionID, true
}

func writeSessionError(w http.ResponseWriter, err error) {
	var invalid *models.InvalidInputError

	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
	case errors.Is(err, models.ErrSessionForbidden):
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Session belongs to another user"})
	case errors.Is(err, models.ErrSessionTerminal):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Session is already finished"})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: invalid.Reason})
	default:
		log.Printf("WARN: session error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
