package service

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/data-portal/internal/auth"
	"github.com/spec-kit/data-portal/internal/config"
	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/repository"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

// SignupInput carries the registration form. Field names in validation
// details follow the form tags.
type SignupInput struct {
	Username        string      `form:"username" validate:"required,max=150"`
	Email           string      `form:"email" validate:"required,email"`
	FirstName       string      `form:"first_name" validate:"required,max=30"`
	LastName        string      `form:"last_name" validate:"required,max=30"`
	EmployeeID      string      `form:"employee_id" validate:"required,max=50"`
	Department      string      `form:"department" validate:"required,max=100"`
	Role            domain.Role `form:"role" validate:"required,oneof=director scientist staff"`
	Password        string      `form:"password1" validate:"min=8"`
	PasswordConfirm string      `form:"password2" validate:"eqfield=Password"`
}

func fieldProblems(err error) map[string]any {
	problems := map[string]any{}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		problems["__all__"] = err.Error()
		return problems
	}
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			problems[fe.Field()] = "This field is required."
		case "email":
			problems[fe.Field()] = "Enter a valid email address."
		case "oneof":
			problems[fe.Field()] = "Select a valid choice."
		case "max":
			problems[fe.Field()] = "Ensure this value has at most " + fe.Param() + " characters."
		case "min":
			problems[fe.Field()] = "This password is too short. It must contain at least " + fe.Param() + " characters."
		case "eqfield":
			problems[fe.Field()] = "The two password fields didn't match."
		default:
			problems[fe.Field()] = "Enter a valid value."
		}
	}
	return problems
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Signup validates the form and creates the account. Field problems are
// reported together in the error details, keyed by form field.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.Department = strings.TrimSpace(in.Department)

	if err := validate.Struct(in); err != nil {
		return nil, apperrors.NewValidationError("Please correct the errors below.", fieldProblems(err))
	}

	problems := map[string]any{}
	taken, err := s.users.TakenFields(ctx, in.Username, in.Email, in.EmployeeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, field := range taken {
		switch field {
		case "username":
			problems["username"] = "A user with that username already exists."
		case "email":
			problems["email"] = "This email is already registered."
		case "employee_id":
			problems["employee_id"] = "This employee ID is already registered."
		}
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("Please correct the errors below.", problems)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		EmployeeID:   in.EmployeeID,
		Department:   in.Department,
		Role:         in.Role,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewValidationError("Please correct the errors below.",
				map[string]any{"username": "A user with that username already exists."})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates by username and password. Unknown users and wrong
// passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewUnauthorized("Invalid username or password")
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("Invalid username or password")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("Invalid username or password")
	}
	return user, nil
}
