package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/data-portal/internal/domain"
)

// TabRepository manages persistence for tabs.
type TabRepository interface {
	Create(ctx context.Context, tab *domain.Tab) error
	GetByID(ctx context.Context, id string) (*domain.Tab, error)
	// NameTaken reports whether another tab in the department already uses
	// name. excludeID skips the tab being renamed; empty checks all tabs.
	NameTaken(ctx context.Context, departmentID, name, excludeID string) (bool, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

type tabRepository struct {
	pool *pgxpool.Pool
}

// NewTabRepository constructs repository.
func NewTabRepository(pool *pgxpool.Pool) TabRepository {
	return &tabRepository{pool: pool}
}

func (r *tabRepository) Create(ctx context.Context, tab *domain.Tab) error {
	const query = `
        INSERT INTO tabs (department_id, name, description, created_by)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		tab.DepartmentID,
		tab.Name,
		tab.Description,
		tab.CreatedBy,
	).Scan(&tab.ID, &tab.CreatedAt)
}

func (r *tabRepository) GetByID(ctx context.Context, id string) (*domain.Tab, error) {
	const query = `
        SELECT id, department_id, name, description, created_by, created_at
        FROM tabs WHERE id=$1`
	return scanTab(r.pool.QueryRow(ctx, query, id))
}

func (r *tabRepository) NameTaken(ctx context.Context, departmentID, name, excludeID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM tabs
            WHERE department_id=$1 AND name=$2 AND ($3 = '' OR id::text <> $3)
        )`
	var taken bool
	if err := r.pool.QueryRow(ctx, query, departmentID, name, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

func (r *tabRepository) Rename(ctx context.Context, id, name string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE tabs SET name=$1 WHERE id=$2`, name, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tabRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tabs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTab(row pgx.Row) (*domain.Tab, error) {
	var tab domain.Tab
	if err := row.Scan(
		&tab.ID,
		&tab.DepartmentID,
		&tab.Name,
		&tab.Description,
		&tab.CreatedBy,
		&tab.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &tab, nil
}
