package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

// SessionCookie is the name of the HttpOnly cookie carrying the
// session id.
const SessionCookie = "cafe_sid"

type contextKey struct{}

var userKey contextKey

// UserFromContext returns the authenticated user placed by RequireUser.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok
}

// ContextWithUser attaches a user the way RequireUser does.
func ContextWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// Users is the user lookup surface the middleware and handler need.
// *Repository satisfies it.
type Users interface {
	Create(ctx context.Context, user *domain.User, passwordHash string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	FindByLogin(ctx context.Context, login string) (*domain.User, string, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

type Middleware struct {
	users    Users
	sessions SessionStore
	logger   *slog.Logger
}

func NewMiddleware(users Users, sessions SessionStore, logger *slog.Logger) *Middleware {
	return &Middleware{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// RequireUser resolves the session cookie to a user and stores it in
// the request context. Requests without a valid session get 401.
func (m *Middleware) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			m.unauthorized(w, "login required")
			return
		}

		userID, err := m.sessions.UserID(r.Context(), cookie.Value)
		if err != nil {
			if err != ErrSessionNotFound {
				m.logger.Error("session lookup failed", "error", err)
			}
			m.unauthorized(w, "login required")
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			m.logger.Error("failed to load session user", "error", err, "user_id", userID)
			m.unauthorized(w, "login required")
			return
		}
		if user == nil {
			m.unauthorized(w, "login required")
			return
		}

		next(w, r.WithContext(ContextWithUser(r.Context(), user)))
	}
}

// RequireAdmin is RequireUser plus a role check.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		if user == nil || user.Role != domain.RoleAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "admin privileges required"})
			return
		}
		next(w, r)
	})
}

func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
