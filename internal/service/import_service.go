package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/config"
	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/events"
	"github.com/spec-kit/data-portal/internal/repository"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

// SerialColumn numbers imported rows from 1.
const SerialColumn = "S.No"

// ImportService loads spreadsheet rows into a tab.
type ImportService struct {
	tabs    repository.TabRepository
	records repository.RecordRepository
	maxRows int
	audit   publisher
	logger  *zap.Logger
}

// NewImportService constructs the service.
func NewImportService(cfg config.ImportConfig, tabs repository.TabRepository, records repository.RecordRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ImportService {
	return &ImportService{
		tabs:    tabs,
		records: records,
		maxRows: cfg.MaxRows,
		audit:   publisher{dispatcher: dispatcher, logger: logger},
		logger:  logger,
	}
}

// Import reads the first sheet of an .xlsx workbook and stores one record per
// data row. It returns the number of records created.
func (s *ImportService) Import(ctx context.Context, actor *domain.User, tabID, fileName string, r io.Reader) (int, error) {
	if !actor.HasPermission(domain.ActionAdd) {
		return 0, permissionDenied()
	}
	tab, err := lookup("Tab", tabID, func() (*domain.Tab, error) { return s.tabs.GetByID(ctx, tabID) })
	if err != nil {
		return 0, err
	}
	if !strings.EqualFold(filepath.Ext(fileName), ".xlsx") {
		return 0, apperrors.NewValidationError("Please upload an Excel file", map[string]any{"file": fileName})
	}

	rows, err := readSheet(r)
	if err != nil {
		return 0, apperrors.NewValidationError("Import failed: "+err.Error(), nil)
	}
	data, err := RowsToData(rows, s.maxRows)
	if err != nil {
		return 0, apperrors.NewValidationError("Import failed: "+err.Error(), nil)
	}

	records := make([]domain.Record, len(data))
	for i := range data {
		records[i] = domain.Record{TabID: tab.ID, Data: data[i], CreatedBy: actorRef(actor)}
	}
	count, err := s.records.CreateMany(ctx, records)
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	s.logger.Info("spreadsheet imported", zap.String("tab_id", tab.ID), zap.String("file", fileName), zap.Int("rows", count))
	s.audit.publish(ctx, events.EventRecordsImported, tab.ID, actor, events.ImportPayload{TabID: tab.ID, FileName: fileName, Rows: count})
	return count, nil
}

func readSheet(r io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	return file.GetRows(sheetName)
}

// RowsToData turns a header row plus data rows into record data. Blank
// headers become "Unnamed: <index>", numeric cells are stored as numbers,
// empty cells as null, and fully blank rows are skipped. maxRows <= 0 means
// no limit.
func RowsToData(rows [][]string, maxRows int) ([]map[string]any, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		header[i] = name
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}

	result := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		if maxRows > 0 && len(result) == maxRows {
			return nil, fmt.Errorf("more than %d rows", maxRows)
		}
		data := map[string]any{SerialColumn: len(result) + 1}
		for i, column := range header {
			data[column] = cellValue(row, i)
		}
		result = append(result, data)
	}
	return result, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellValue(row []string, idx int) any {
	if idx >= len(row) {
		return nil
	}
	value := strings.TrimSpace(row[idx])
	if value == "" {
		return nil
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return value
}
