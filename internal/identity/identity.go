package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tnhan0211/serverzola/internal/apperr"
	"github.com/tnhan0211/serverzola/internal/auth"
	"github.com/tnhan0211/serverzola/internal/models"
)

// UserRepo is the account store behind registration and login.
type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetDisabled(ctx context.Context, id string, disabled bool) error
}

type Service struct {
	users  UserRepo
	tokens *auth.TokenManager
}

func NewService(users UserRepo, tokens *auth.TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: invalid email", apperr.ErrBadRequest)
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", apperr.ErrBadRequest)
	}
	if in.DisplayName == "" {
		return nil, fmt.Errorf("%w: display_name is required", apperr.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:       in.Email,
		Password:    string(hash),
		DisplayName: in.DisplayName,
		Role:        models.RoleUser,
		Status:      models.StatusActive,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the credentials and returns the account with a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
		}
		return nil, "", err
	}
	if u.Disabled || u.IsDeleted {
		return nil, "", fmt.Errorf("%w: account disabled", apperr.ErrForbidden)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, "", fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
	}
	token, err := s.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Disable suspends an account; a suspended user can no longer log in and
// existing sockets are closed by the gateway on the next auth check.
func (s *Service) Disable(ctx context.Context, id string, disabled bool) error {
	return s.users.SetDisabled(ctx, id, disabled)
}
