package service

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/config"
	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/events"
	"github.com/spec-kit/data-portal/internal/repository/memory"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportService_Import(t *testing.T) {
	store := memory.NewStore()
	rec := &recordedEvents{}
	tabs := memory.NewTabRepository(store)
	tab := &domain.Tab{DepartmentID: "dept", Name: "Samples"}
	require.NoError(t, tabs.Create(context.Background(), tab))
	records := memory.NewRecordRepository(store)
	svc := NewImportService(config.ImportConfig{MaxRows: 10}, tabs, records, rec, zap.NewNop())

	buf := workbook(t, [][]any{
		{"Name", "Age", "Score"},
		{"John", 28, 9.5},
		{"Jane", nil, "n/a"},
	})
	count, err := svc.Import(context.Background(), actor(domain.RoleStaff), tab.ID, "people.XLSX", buf)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	stored, err := records.ListByTab(context.Background(), tab.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	bySerial := map[any]map[string]any{}
	for _, r := range stored {
		bySerial[r.Data[SerialColumn]] = r.Data
	}
	require.Equal(t, map[string]any{SerialColumn: 1, "Name": "John", "Age": int64(28), "Score": 9.5}, bySerial[1])
	require.Equal(t, map[string]any{SerialColumn: 2, "Name": "Jane", "Age": nil, "Score": "n/a"}, bySerial[2])
	require.Equal(t, []events.EventType{events.EventRecordsImported}, rec.types())

	_, err = svc.Import(context.Background(), actor(domain.RoleStaff), tab.ID, "people.csv", bytes.NewReader(nil))
	requireDomainError(t, err, http.StatusBadRequest, "Please upload an Excel file")

	_, err = svc.Import(context.Background(), actor(domain.RoleStaff), tab.ID, "broken.xlsx", bytes.NewReader([]byte("nope")))
	require.Error(t, err)
}

func TestRowsToData(t *testing.T) {
	data, err := RowsToData([][]string{
		{"Name", "", "S.No"},
		{"a", "b", "7"},
		{"", " ", ""},
		{"c"},
	}, 0)
	require.NoError(t, err)
	require.Equal(t, []map[string]any{
		{"Name": "a", "Unnamed: 1": "b", "S.No": int64(7)},
		{"Name": "c", "Unnamed: 1": nil, "S.No": nil},
	}, data)

	_, err = RowsToData([][]string{{"h"}, {"1"}, {"2"}}, 1)
	require.ErrorContains(t, err, "more than 1 rows")

	_, err = RowsToData(nil, 0)
	require.ErrorContains(t, err, "empty")
}
