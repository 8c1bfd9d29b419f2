package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/data-portal/internal/domain"
)

// UserRepository defines persistence access for portal accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// TakenFields reports which of username, email and employee_id already
	// belong to an account, by column name.
	TakenFields(ctx context.Context, username, email, employeeID string) ([]string, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, username, email, first_name, last_name, employee_id, department, role, password_hash, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, email, first_name, last_name, employee_id, department, role, password_hash)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.EmployeeID,
		user.Department,
		user.Role,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.scanOne(ctx, query, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	return r.scanOne(ctx, query, username)
}

func (r *userRepository) TakenFields(ctx context.Context, username, email, employeeID string) ([]string, error) {
	const query = `
        SELECT username=$1, lower(email)=lower($2), employee_id=$3
        FROM users WHERE username=$1 OR lower(email)=lower($2) OR employee_id=$3`
	rows, err := r.pool.Query(ctx, query, username, email, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taken := map[string]bool{}
	for rows.Next() {
		var sameUsername, sameEmail, sameEmployee bool
		if err := rows.Scan(&sameUsername, &sameEmail, &sameEmployee); err != nil {
			return nil, err
		}
		taken["username"] = taken["username"] || sameUsername
		taken["email"] = taken["email"] || sameEmail
		taken["employee_id"] = taken["employee_id"] || sameEmployee
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var fields []string
	for _, name := range []string{"username", "email", "employee_id"} {
		if taken[name] {
			fields = append(fields, name)
		}
	}
	return fields, nil
}

func (r *userRepository) scanOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.EmployeeID,
		&user.Department,
		&user.Role,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
