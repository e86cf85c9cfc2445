package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lib/pq"
	"github.com/sadhana-path/backend/internal/database"
	"github.com/sadhana-path/backend/internal/middleware"
	"github.com/sadhana-path/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	maxNameLen     = 100
)

type Handler struct {
	db     *sql.DB
	tokens *Tokens
	logger *zap.Logger
}

func NewHandler(db *sql.DB, tokens *Tokens, logger *zap.Logger) *Handler {
	return &Handler{db: db, tokens: tokens, logger: logger.Named("auth")}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" || req.Name == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Email, name, and password are required"})
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Email is not valid"})
		return
	}
	if len(req.Password) < minPasswordLen {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Password must be at least 8 characters"})
		return
	}
	if utf8.RuneCountInString(req.Name) > maxNameLen {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Name is too long"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	var user models.User
	var insertErr error
	// Retry a few times in case the generated username collides
	for attempt := 0; attempt < 5; attempt++ {
		username := database.GenerateUsername(req.Name)
		now := time.Now()
		insertErr = h.db.QueryRowContext(r.Context(),
			`INSERT INTO users (email, name, username, password, avatar, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, email, name, username, avatar, created_at, updated_at`,
			req.Email, req.Name, username, string(hashedPassword), DefaultAvatar, now, now,
		).Scan(&user.ID, &user.Email, &user.Name, &user.Username, &user.Avatar, &user.CreatedAt, &user.UpdatedAt)

		if uniqueViolation(insertErr, "users_username_key") {
			continue
		}
		break
	}

	if insertErr != nil {
		if uniqueViolation(insertErr, "users_email_key") {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "An account with this email already exists"})
			return
		}
		h.logger.Error("create user", zap.Error(insertErr))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create account"})
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("issue token", zap.Int64("user_id", user.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	h.logger.Info("user registered", zap.Int64("user_id", user.ID))
	writeJSON(w, http.StatusCreated, models.AuthResponse{Token: token, User: user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Email and password are required"})
		return
	}

	var user models.User
	var hashedPassword string
	err := h.db.QueryRowContext(r.Context(),
		`SELECT id, email, name, username, avatar, password, created_at, updated_at FROM users WHERE email = $1`,
		req.Email,
	).Scan(&user.ID, &user.Email, &user.Name, &user.Username, &user.Avatar, &hashedPassword, &user.CreatedAt, &user.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid email or password"})
		return
	}
	if err != nil {
		h.logger.Error("load user for login", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid email or password"})
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("issue token", zap.Int64("user_id", user.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusOK, models.AuthResponse{Token: token, User: user})
}

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	user, err := h.loadUser(r, userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "User not found"})
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile edits the display name and/or avatar.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if msg := validateProfile(&req); msg != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	_, err := h.db.ExecContext(r.Context(),
		`UPDATE users SET
		    name = COALESCE($2, name),
		    avatar = COALESCE($3, avatar),
		    updated_at = NOW()
		 WHERE id = $1`,
		userID, req.Name, req.Avatar,
	)
	if err != nil {
		h.logger.Error("update profile", zap.Int64("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update profile"})
		return
	}

	user, err := h.loadUser(r, userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) ListAvatars(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"avatars": Avatars,
		"default": DefaultAvatar,
	})
}

func (h *Handler) loadUser(r *http.Request, userID int64) (models.User, error) {
	var user models.User
	err := h.db.QueryRowContext(r.Context(),
		`SELECT id, email, name, username, avatar, created_at, updated_at FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.Email, &user.Name, &user.Username, &user.Avatar, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// validateProfile normalizes req in place and returns an error message, or
// "" when the request is acceptable.
func validateProfile(req *models.UpdateProfileRequest) string {
	if req.Name == nil && req.Avatar == nil {
		return "Nothing to update"
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return "Name cannot be empty"
		}
		if utf8.RuneCountInString(name) > maxNameLen {
			return "Name is too long"
		}
		req.Name = &name
	}
	if req.Avatar != nil && !validAvatar(*req.Avatar) {
		return "Unknown avatar"
	}
	return ""
}

func uniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == constraint
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
