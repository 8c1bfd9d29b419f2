package dto

import (
	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/service"
)

// SignupForm is the registration form as posted by the signup page.
type SignupForm struct {
	Username   string `form:"username"`
	Email      string `form:"email"`
	FirstName  string `form:"first_name"`
	LastName   string `form:"last_name"`
	EmployeeID string `form:"employee_id"`
	Department string `form:"department"`
	Role       string `form:"role"`
	Password1  string `form:"password1"`
	Password2  string `form:"password2"`
}

// Input converts the form for the auth service.
func (f SignupForm) Input() service.SignupInput {
	return service.SignupInput{
		Username:        f.Username,
		Email:           f.Email,
		FirstName:       f.FirstName,
		LastName:        f.LastName,
		EmployeeID:      f.EmployeeID,
		Department:      f.Department,
		Role:            domain.Role(f.Role),
		Password:        f.Password1,
		PasswordConfirm: f.Password2,
	}
}

// LoginForm is posted by the login page.
type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Next     string `form:"next"`
}
