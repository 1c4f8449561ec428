package actor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials hides whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameRequired   = errors.New("username is required")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// Service manages actor accounts.
type Service struct {
	repo Repository
}

// NewService creates a new actor service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput captures data needed to create an actor.
type RegisterInput struct {
	Username string
	Password string
	Role     string
}

// Register creates an actor and stores a bcrypt hash of its password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Actor, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return Actor{}, ErrUsernameRequired
	}
	if len(in.Password) < 8 {
		return Actor{}, ErrWeakPassword
	}
	role := in.Role
	if role == "" {
		role = RoleStaff
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Actor{}, err
	}

	a := Actor{
		ID:           uuid.New().String(),
		Username:     username,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Actor{}, err
	}
	return a, nil
}

// Authenticate verifies a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Actor, error) {
	a, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Actor{}, ErrInvalidCredentials
		}
		return Actor{}, err
	}
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
		return Actor{}, ErrInvalidCredentials
	}
	return a, nil
}

// Get fetches an actor by id.
func (s *Service) Get(ctx context.Context, id string) (Actor, error) {
	return s.repo.FindByID(ctx, id)
}
