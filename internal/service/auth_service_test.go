package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/data-portal/internal/config"
	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/repository/memory"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

func validSignup() SignupInput {
	return SignupInput{
		Username:        "ada",
		Email:           "ada@example.com",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		EmployeeID:      "E-1",
		Department:      "Analytics",
		Role:            domain.RoleScientist,
		Password:        "correct horse",
		PasswordConfirm: "correct horse",
	}
}

func newAuthFixture() *AuthService {
	cfg := config.Config{Auth: config.AuthConfig{BcryptCost: 4}}
	return NewAuthService(cfg, memory.NewUserRepository(memory.NewStore()))
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	svc := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.NotEqual(t, "correct horse", user.PasswordHash)

	got, err := svc.Login(ctx, " ada ", "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, domain.RoleScientist, got.Role)

	_, err = svc.Login(ctx, "ada", "wrong")
	requireDomainError(t, err, http.StatusUnauthorized, "Invalid username or password")

	_, err = svc.Login(ctx, "nobody", "correct horse")
	requireDomainError(t, err, http.StatusUnauthorized, "Invalid username or password")
}

func TestAuthService_SignupValidation(t *testing.T) {
	svc := newAuthFixture()
	ctx := context.Background()

	in := validSignup()
	in.Email = "not-an-email"
	in.Role = domain.Role("intern")
	in.PasswordConfirm = "different"
	_, err := svc.Signup(ctx, in)
	requireDomainError(t, err, http.StatusBadRequest, "Please correct the errors below.")
	details := apperrors.ToDomainError(err).Details
	require.Contains(t, details, "email")
	require.Contains(t, details, "role")
	require.Contains(t, details, "password2")

	_, err = svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	dup := validSignup()
	dup.Username = "ada2"
	_, err = svc.Signup(ctx, dup)
	require.Error(t, err)
	details = apperrors.ToDomainError(err).Details
	require.Equal(t, "This email is already registered.", details["email"])
	require.Equal(t, "This employee ID is already registered.", details["employee_id"])
	require.NotContains(t, details, "username")
}
