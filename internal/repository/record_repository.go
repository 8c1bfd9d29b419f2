package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/data-portal/internal/domain"
)

// RecordRepository manages tab records.
type RecordRepository interface {
	Create(ctx context.Context, record *domain.Record) error
	// CreateMany inserts all records in one transaction.
	CreateMany(ctx context.Context, records []domain.Record) (int, error)
	GetByID(ctx context.Context, id string) (*domain.Record, error)
	ListByTab(ctx context.Context, tabID string) ([]domain.Record, error)
	UpdateData(ctx context.Context, record *domain.Record) error
	Delete(ctx context.Context, id string) error
}

type recordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository builds repository.
func NewRecordRepository(pool *pgxpool.Pool) RecordRepository {
	return &recordRepository{pool: pool}
}

const insertRecord = `
        INSERT INTO records (tab_id, data, created_by)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`

func (r *recordRepository) Create(ctx context.Context, record *domain.Record) error {
	return r.pool.QueryRow(ctx, insertRecord,
		record.TabID,
		record.Data,
		record.CreatedBy,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
}

func (r *recordRepository) CreateMany(ctx context.Context, records []domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for i := range records {
		batch.Queue(insertRecord, records[i].TabID, records[i].Data, records[i].CreatedBy)
	}
	results := tx.SendBatch(ctx, batch)
	for i := range records {
		if err := results.QueryRow().Scan(&records[i].ID, &records[i].CreatedAt, &records[i].UpdatedAt); err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (r *recordRepository) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	const query = `
        SELECT id, tab_id, data, created_by, updated_by, created_at, updated_at
        FROM records WHERE id=$1`
	return scanRecord(r.pool.QueryRow(ctx, query, id))
}

func (r *recordRepository) ListByTab(ctx context.Context, tabID string) ([]domain.Record, error) {
	const query = `
        SELECT id, tab_id, data, created_by, updated_by, created_at, updated_at
        FROM records WHERE tab_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, tabID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, rows.Err()
}

func (r *recordRepository) UpdateData(ctx context.Context, record *domain.Record) error {
	const query = `
        UPDATE records SET data=$1, updated_by=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, record.Data, record.UpdatedBy, record.ID).Scan(&record.UpdatedAt)
}

func (r *recordRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM records WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanRecord(row pgx.Row) (*domain.Record, error) {
	var record domain.Record
	if err := row.Scan(
		&record.ID,
		&record.TabID,
		&record.Data,
		&record.CreatedBy,
		&record.UpdatedBy,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if record.Data == nil {
		record.Data = map[string]any{}
	}
	return &record, nil
}
