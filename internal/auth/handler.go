package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Handler struct {
	users    Users
	sessions SessionStore
	logger   *slog.Logger
}

func NewHandler(users Users, sessions SessionStore, logger *slog.Logger) *Handler {
	return &Handler{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

type signUpRequest struct {
	Username        string         `json:"username"`
	Email           string         `json:"email"`
	Password        string         `json:"password"`
	ConfirmPassword string         `json:"confirm_password"`
	Address         domain.Address `json:"address"`
}

func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if msg := validateSignUp(req); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	taken, err := h.users.UsernameTaken(r.Context(), req.Username)
	if err != nil {
		h.logger.Error("username check failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if taken {
		h.writeError(w, http.StatusConflict, ErrUsernameTaken.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user := &domain.User{
		Email:     req.Email,
		Username:  req.Username,
		Role:      domain.RoleUser,
		Address:   req.Address,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.users.Create(r.Context(), user, string(hash)); err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrUsernameTaken) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to create user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		h.logger.Error("failed to create session", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("user signed up", "user_id", user.ID, "username", user.Username)
	h.writeJSON(w, http.StatusCreated, user)
}

func validateSignUp(req signUpRequest) string {
	switch {
	case req.Password != req.ConfirmPassword:
		return "passwords do not match"
	case len(req.Username) < 3:
		return "username must be at least 3 characters"
	case !emailPattern.MatchString(req.Email):
		return "invalid email format"
	case len(req.Password) < 6:
		return "password must be at least 6 characters"
	}
	return ""
}

type logInRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// HandleLogIn accepts a username or an email in the login field.
func (h *Handler) HandleLogIn(w http.ResponseWriter, r *http.Request) {
	var req logInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "login and password are required")
		return
	}

	user, hash, err := h.users.FindByLogin(r.Context(), req.Login)
	if err != nil {
		h.logger.Error("login lookup failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		h.writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		h.writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		h.logger.Error("failed to create session", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleLogOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			h.logger.Error("failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated profile. Mounted behind
// Middleware.RequireUser.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID string) error {
	sessionID, err := h.sessions.Create(r.Context(), userID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
