package progress

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sadhana-path/backend/internal/middleware"
	"github.com/sadhana-path/backend/internal/models"
	"github.com/sadhana-path/backend/internal/practice"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("progress")}
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.Dashboard(r.Context(), userID)
	if errors.Is(err, practice.ErrDataUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: practice.ErrDataUnavailable.Error()})
		return
	}
	if err != nil {
		h.logger.Error("dashboard", zap.Int64("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get progress"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	limit := DefaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxLeaderboardLimit {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "limit must be between 1 and 100"})
			return
		}
		limit = v
	}

	resp, err := h.service.Leaderboard(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("leaderboard", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get leaderboard"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Levels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Levels())
}

func (h *Handler) Quests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Quests())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
