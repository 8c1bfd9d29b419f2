package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/events"
	"github.com/spec-kit/data-portal/internal/repository/memory"
)

func newRecordFixture(t *testing.T) (*RecordService, *domain.Tab, *recordedEvents) {
	t.Helper()
	store := memory.NewStore()
	rec := &recordedEvents{}
	tabs := memory.NewTabRepository(store)
	tab := &domain.Tab{DepartmentID: "dept", Name: "Samples"}
	require.NoError(t, tabs.Create(context.Background(), tab))
	return NewRecordService(tabs, memory.NewRecordRepository(store), rec, zap.NewNop()), tab, rec
}

func TestRecordService_CreateAndGrid(t *testing.T) {
	svc, tab, _ := newRecordFixture(t)
	ctx := context.Background()
	staff := actor(domain.RoleStaff)

	record, err := svc.Create(ctx, staff, tab.ID, map[string]any{"id": 99.0, "Name": "John", "Age": 28.0})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"Name": "John", "Age": 28.0}, record.Data)

	_, err = svc.Create(ctx, staff, tab.ID, map[string]any{"Department": "IT"})
	require.NoError(t, err)

	grid, err := svc.Grid(ctx, staff, tab.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"Age", "Department", "Name", "id"}, grid.Columns)
	require.Len(t, grid.Rows, 2)
	require.True(t, grid.CanAdd)
	require.False(t, grid.CanEdit)
	require.False(t, grid.CanDelete)

	_, columns, err := svc.FormColumns(ctx, staff, tab.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"Age", "Department", "Name"}, columns)
}

func TestRecordService_EditAndDelete(t *testing.T) {
	svc, tab, rec := newRecordFixture(t)
	ctx := context.Background()
	director := actor(domain.RoleDirector)
	scientist := actor(domain.RoleScientist)
	staff := actor(domain.RoleStaff)

	record, err := svc.Create(ctx, staff, tab.ID, map[string]any{"Name": "John", "Age": 28.0})
	require.NoError(t, err)

	_, err = svc.Merge(ctx, staff, record.ID, map[string]any{"Age": 29.0})
	requireDomainError(t, err, http.StatusForbidden, "Permission denied")

	merged, err := svc.Merge(ctx, scientist, record.ID, map[string]any{"Age": 29.0, "City": "Oslo"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"Name": "John", "Age": 29.0, "City": "Oslo"}, merged.Data)
	require.Equal(t, scientist.ID, *merged.UpdatedBy)

	cell, err := svc.UpdateCell(ctx, scientist, record.ID, " Name ", "Jane")
	require.NoError(t, err)
	require.Equal(t, "Jane", cell.Data["Name"])

	_, err = svc.UpdateCell(ctx, scientist, record.ID, "  ", "x")
	requireDomainError(t, err, http.StatusBadRequest, "Column name required")

	replaced, err := svc.Replace(ctx, scientist, record.ID, map[string]any{"only": true})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"only": true}, replaced.Data)

	_, err = svc.Delete(ctx, scientist, record.ID)
	requireDomainError(t, err, http.StatusForbidden, "Permission denied")

	deleted, err := svc.Delete(ctx, director, record.ID)
	require.NoError(t, err)
	require.Equal(t, record.ID, deleted.ID)

	_, err = svc.Delete(ctx, director, record.ID)
	requireDomainError(t, err, http.StatusNotFound, "Record not found")

	require.Equal(t, []events.EventType{
		events.EventRecordCreated,
		events.EventRecordUpdated,
		events.EventRecordUpdated,
		events.EventRecordUpdated,
		events.EventRecordDeleted,
	}, rec.types())
}

func TestDecodeObject(t *testing.T) {
	data, err := DecodeObject([]byte(`{"a": 1}`))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"a": 1.0}, data)

	for _, raw := range []string{`[1,2]`, `"text"`, `null`, `{"a":`, ``} {
		_, err := DecodeObject([]byte(raw))
		requireDomainError(t, err, http.StatusBadRequest, "Invalid JSON")
	}
}

func TestFormData(t *testing.T) {
	columns := []string{"Age", "Name"}

	fromJSON := FormData(columns, map[string]string{
		"data_json":  `{"Name": "Ann"}`,
		"field_Name": "ignored",
	})
	require.Equal(t, map[string]any{"Name": "Ann"}, fromJSON)

	fromFields := FormData(columns, map[string]string{
		"data_json":     `not json`,
		"field_Name":    "  Bob ",
		"field_Age":     "   ",
		"dynamic_col_1": "City",
		"dynamic_val_1": "Rome",
		"dynamic_col_2": "Empty",
		"dynamic_val_2": "",
	})
	require.Equal(t, map[string]any{"Name": "Bob", "City": "Rome"}, fromFields)

	require.Empty(t, FormData(columns, map[string]string{}))
}
