package reflection

import (
	"encoding/json"
	"net/http"

	"github.com/sadhana-path/backend/internal/models"
	"go.uber.org/zap"
)

type Handler struct {
	generator *Generator
	logger    *zap.Logger
}

func NewHandler(generator *Generator, logger *zap.Logger) *Handler {
	return &Handler{generator: generator, logger: logger.Named("reflection")}
}

func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.generator.Today(r.Context())
	if err != nil {
		h.logger.Error("today's reflection", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "Reflection prompt unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
