package staff

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jobdiary/jobdiary/internal/shared"
)

// Service wraps authentication and staff lookups.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// HashPassword returns a bcrypt hash suitable for the staff table.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Get returns an active staff account.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("staff", id)
		}
		return nil, err
	}
	return user, nil
}

// RoleOf returns the role of an active account; inactive accounts have none.
func (s *Service) RoleOf(ctx context.Context, id int64) (string, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", &shared.AuthorizationError{Reason: "unknown staff account"}
		}
		return "", err
	}
	if !user.IsActive {
		return "", nil
	}
	return user.Role, nil
}

// DisplayNames resolves names for the given ids.
func (s *Service) DisplayNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return s.repo.DisplayNames(ctx, ids)
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
