package practice

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sadhana-path/backend/internal/middleware"
	"github.com/sadhana-path/backend/internal/models"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("practice")}
}

// ── Practice ────────────────────────────────────────────

func (h *Handler) LogJapa(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.LogJapaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.LogJapa(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err, "Failed to log japa")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) LogMeditation(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.LogMeditationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.LogMeditation(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err, "Failed to log meditation")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	days, err := intQueryParam(r.URL.Query(), "days", DefaultHistoryDays)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "days must be an integer"})
		return
	}

	resp, err := h.service.History(r.Context(), userID, days)
	if err != nil {
		h.writeError(w, err, "Failed to get history")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Streak(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.Streak(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "Failed to get streak")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ── Journal ─────────────────────────────────────────────

func (h *Handler) ListJournal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	q := r.URL.Query()
	page, err := intQueryParam(q, "page", 1)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "page must be an integer"})
		return
	}
	size, err := intQueryParam(q, "page_size", defaultPageSize)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "page_size must be an integer"})
		return
	}

	resp, err := h.service.ListJournalEntries(r.Context(), userID, models.JournalListRequest{
		Tag:      q.Get("tag"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		h.writeError(w, err, "Failed to list journal entries")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.JournalEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	entry, err := h.service.CreateJournalEntry(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err, "Failed to create journal entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) UpdateJournal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid journal entry ID"})
		return
	}

	var req models.JournalEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	entry, err := h.service.UpdateJournalEntry(r.Context(), userID, id, req)
	if err != nil {
		h.writeError(w, err, "Failed to update journal entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid journal entry ID"})
		return
	}

	if err := h.service.DeleteJournalEntry(r.Context(), userID, id); err != nil {
		h.writeError(w, err, "Failed to delete journal entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Helpers ─────────────────────────────────────────────

// writeError maps service errors to status codes. Anything unrecognized
// is logged and reported as a 500 with fallback as the message.
func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: verr.Error()})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Journal entry not found"})
	case errors.Is(err, ErrDataUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: ErrDataUnavailable.Error()})
	default:
		h.logger.Error(fallback, zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: fallback})
	}
}

func intQueryParam(query url.Values, key string, defaultVal int) (int, error) {
	s := query.Get(key)
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
