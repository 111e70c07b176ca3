package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bochamaakram/knowway/internal/config"
	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/utils"
)

func newAuthFixture(t *testing.T) (*fakeRepository, AuthService) {
	t.Helper()
	repo := newFakeRepository()
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiration: time.Hour,
		BcryptCost:    bcrypt.MinCost,
	}
	return repo, NewAuthService(repo, slog.Default(), utils.NewValidator(), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture(t)

	resp, err := svc.Register(ctx, &RegisterRequest{
		Username: "akram",
		Email:    "Akram@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "akram", resp.User.Username)
	assert.Equal(t, "akram@example.com", resp.User.Email)

	login, err := svc.Login(ctx, &LoginRequest{
		Email:    "akram@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture(t)

	req := &RegisterRequest{Username: "akram", Email: "a@example.com", Password: "secret123"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	req.Username = "other"
	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"short username", RegisterRequest{Username: "ab", Email: "a@example.com", Password: "secret123"}},
		{"bad username chars", RegisterRequest{Username: "mr bean", Email: "a@example.com", Password: "secret123"}},
		{"disallowed tld", RegisterRequest{Username: "akram", Email: "a@example.xyz", Password: "secret123"}},
		{"short password", RegisterRequest{Username: "akram", Email: "a@example.com", Password: "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tt.req)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture(t)

	_, err := svc.Register(ctx, &RegisterRequest{
		Username: "akram", Email: "a@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, svc := newAuthFixture(t)

	resp, err := svc.Register(ctx, &RegisterRequest{
		Username: "akram", Email: "a@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	userID, err := svc.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, userID)

	_, err = svc.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetMeReturnsEffectiveRole(t *testing.T) {
	ctx := context.Background()
	repo, svc := newAuthFixture(t)

	repo.addUser(&models.User{ID: 1, Username: "root", Email: "root@example.com", Role: models.RoleLearner})
	repo.addUser(&models.User{ID: 2, Username: "plain", Email: "plain@example.com", Role: models.RoleLearner})

	me, err := svc.GetMe(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, me.Role)

	me, err = svc.GetMe(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLearner, me.Role)
}
