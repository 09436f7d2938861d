package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnhan0211/serverzola/internal/apperr"
	"github.com/tnhan0211/serverzola/internal/auth"
	"github.com/tnhan0211/serverzola/internal/models"
)

type memUsers struct {
	seq     int
	byEmail map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*models.User{}}
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return fmt.Errorf("%w: email already registered", apperr.ErrAlreadyExists)
	}
	m.seq++
	u.ID = fmt.Sprintf("u%d", m.seq)
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("%w: no account", apperr.ErrNotFound)
	}
	return u, nil
}

func (m *memUsers) SetDisabled(_ context.Context, id string, disabled bool) error {
	for _, u := range m.byEmail {
		if u.ID == id {
			u.Disabled = disabled
			return nil
		}
	}
	return apperr.ErrNotFound
}

func newService(t *testing.T) (*Service, *memUsers) {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	users := newMemUsers()
	return NewService(users, tokens), users
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "secret1", DisplayName: "A"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "short", DisplayName: "A"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "secret1"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestRegisterHashesPasswordAndNormalizesEmail(t *testing.T) {
	svc, users := newService(t)

	u, err := svc.Register(context.Background(), RegisterInput{
		Email:       "  Alice@Example.COM ",
		Password:    "secret1",
		DisplayName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.Password)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Contains(t, users.byEmail, "alice@example.com")

	_, err = svc.Register(context.Background(), RegisterInput{
		Email:       "alice@example.com",
		Password:    "secret1",
		DisplayName: "Alice Again",
	})
	require.ErrorIs(t, err, apperr.ErrAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "secret1", DisplayName: "A"})
	require.NoError(t, err)

	u, token, err := svc.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "a@b.com", u.Email)

	_, _, err = svc.Login(ctx, "a@b.com", "wrong-pass")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	// unknown accounts come back as the same generic unauthorized
	_, _, err = svc.Login(ctx, "nobody@b.com", "secret1")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "secret1", DisplayName: "A"})
	require.NoError(t, err)
	require.NoError(t, svc.Disable(ctx, u.ID, true))

	_, _, err = svc.Login(ctx, "a@b.com", "secret1")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, svc.Disable(ctx, u.ID, false))
	_, _, err = svc.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
}
