package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gwangju-cafe/cafe-backend/internal/domain"
)

var (
	ErrEmailTaken    = errors.New("email already in use")
	ErrUsernameTaken = errors.New("username already taken")
)

const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, user *domain.User, passwordHash string) error {
	user.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, username, password_hash, role,
			first_name, last_name, house_number, street, barangay, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, user.ID, user.Email, user.Username, passwordHash, user.Role,
		user.Address.FirstName, user.Address.LastName,
		user.Address.HouseNumber, user.Address.Street, user.Address.Barangay,
		user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			switch pqErr.Constraint {
			case "users_email_key":
				return ErrEmailTaken
			case "users_username_key":
				return ErrUsernameTaken
			}
		}
		return err
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// FindByLogin resolves a user by username or email and returns the
// stored password hash alongside the profile.
func (r *Repository) FindByLogin(ctx context.Context, login string) (*domain.User, string, error) {
	user := &domain.User{}
	var hash string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, username, password_hash, role,
			first_name, last_name, house_number, street, barangay, created_at
		FROM users
		WHERE username = $1 OR email = $1
	`, login).Scan(&user.ID, &user.Email, &user.Username, &hash, &user.Role,
		&user.Address.FirstName, &user.Address.LastName,
		&user.Address.HouseNumber, &user.Address.Street, &user.Address.Barangay,
		&user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", nil
		}
		return nil, "", err
	}

	return user, hash, nil
}

func (r *Repository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)
	`, username).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// EnsureAdmin creates the staff account at startup if it does not
// exist yet. An existing account with the same email or username is
// left untouched.
func (r *Repository) EnsureAdmin(ctx context.Context, email, username, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
	`, uuid.New().String(), email, username, passwordHash, domain.RoleAdmin, time.Now().UTC())
	return err
}

func (r *Repository) getOne(ctx context.Context, where string, args ...any) (*domain.User, error) {
	user := &domain.User{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, username, role,
			first_name, last_name, house_number, street, barangay, created_at
		FROM users `+where,
		args...).Scan(&user.ID, &user.Email, &user.Username, &user.Role,
		&user.Address.FirstName, &user.Address.LastName,
		&user.Address.HouseNumber, &user.Address.Street, &user.Address.Barangay,
		&user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}
