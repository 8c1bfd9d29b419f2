package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/data-portal/internal/domain"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, description, created_by)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		dept.Name,
		dept.Description,
		dept.CreatedBy,
	).Scan(&dept.ID, &dept.CreatedAt)
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
        SELECT id, name, description, created_by, created_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.CreatedBy,
		&dept.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM departments WHERE name=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// List returns every department ordered by name with its tabs attached.
func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	const deptQuery = `
        SELECT id, name, description, created_by, created_at
        FROM departments ORDER BY name`
	rows, err := r.pool.Query(ctx, deptQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	index := map[string]int{}
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Description, &dept.CreatedBy, &dept.CreatedAt); err != nil {
			return nil, err
		}
		index[dept.ID] = len(result)
		result = append(result, dept)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const tabQuery = `
        SELECT id, department_id, name, description, created_by, created_at
        FROM tabs ORDER BY name`
	tabRows, err := r.pool.Query(ctx, tabQuery)
	if err != nil {
		return nil, err
	}
	defer tabRows.Close()

	for tabRows.Next() {
		tab, err := scanTab(tabRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[tab.DepartmentID]; ok {
			result[i].Tabs = append(result[i].Tabs, *tab)
		}
	}
	return result, tabRows.Err()
}
