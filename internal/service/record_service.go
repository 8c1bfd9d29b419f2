package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/events"
	"github.com/spec-kit/data-portal/internal/repository"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

// RecordGrid is a tab's records flattened for display.
type RecordGrid struct {
	Tab       *domain.Tab
	Records   []domain.Record
	Rows      []map[string]any
	Columns   []string
	CanAdd    bool
	CanEdit   bool
	CanDelete bool
}

// RecordService manages the free-form rows of a tab.
type RecordService struct {
	tabs    repository.TabRepository
	records repository.RecordRepository
	audit   publisher
}

// NewRecordService constructs the service.
func NewRecordService(tabs repository.TabRepository, records repository.RecordRepository, dispatcher events.Dispatcher, logger *zap.Logger) *RecordService {
	return &RecordService{
		tabs:    tabs,
		records: records,
		audit:   publisher{dispatcher: dispatcher, logger: logger},
	}
}

func (s *RecordService) tab(ctx context.Context, actor *domain.User, tabID string, action domain.Action) (*domain.Tab, error) {
	if !actor.HasPermission(action) {
		return nil, permissionDenied()
	}
	return lookup("Tab", tabID, func() (*domain.Tab, error) { return s.tabs.GetByID(ctx, tabID) })
}

func (s *RecordService) record(ctx context.Context, actor *domain.User, recordID string, action domain.Action) (*domain.Record, error) {
	record, err := lookup("Record", recordID, func() (*domain.Record, error) { return s.records.GetByID(ctx, recordID) })
	if err != nil {
		return nil, err
	}
	if !actor.HasPermission(action) {
		return nil, permissionDenied()
	}
	if record.Data == nil {
		record.Data = map[string]any{}
	}
	return record, nil
}

// Grid lists a tab's records with the union of their columns and what the
// actor may do with them.
func (s *RecordService) Grid(ctx context.Context, actor *domain.User, tabID string) (*RecordGrid, error) {
	tab, err := s.tab(ctx, actor, tabID, domain.ActionView)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListByTab(ctx, tab.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return &RecordGrid{
		Tab:       tab,
		Records:   records,
		Rows:      rows,
		Columns:   domain.Columns(records),
		CanAdd:    actor.HasPermission(domain.ActionAdd),
		CanEdit:   actor.HasPermission(domain.ActionEdit),
		CanDelete: actor.HasPermission(domain.ActionDelete),
	}, nil
}

// FormColumns returns the data columns already used in the tab, without "id",
// for the add-record form.
func (s *RecordService) FormColumns(ctx context.Context, actor *domain.User, tabID string) (*domain.Tab, []string, error) {
	tab, err := s.tab(ctx, actor, tabID, domain.ActionAdd)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.records.ListByTab(ctx, tab.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	columns := make([]string, 0)
	for _, c := range domain.Columns(records) {
		if c != "id" {
			columns = append(columns, c)
		}
	}
	return tab, columns, nil
}

// Get fetches a record the actor may edit, with its tab.
func (s *RecordService) Get(ctx context.Context, actor *domain.User, recordID string) (*domain.Record, *domain.Tab, error) {
	record, err := s.record(ctx, actor, recordID, domain.ActionEdit)
	if err != nil {
		return nil, nil, err
	}
	tab, err := s.tabs.GetByID(ctx, record.TabID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return record, tab, nil
}

// Create stores a new record. A client supplied "id" key is dropped.
func (s *RecordService) Create(ctx context.Context, actor *domain.User, tabID string, data map[string]any) (*domain.Record, error) {
	tab, err := s.tab(ctx, actor, tabID, domain.ActionAdd)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	delete(data, "id")

	record := &domain.Record{TabID: tab.ID, Data: data, CreatedBy: actorRef(actor)}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.publish(ctx, events.EventRecordCreated, record.ID, actor, events.RecordPayload{TabID: tab.ID})
	return record, nil
}

// Merge applies patch on top of the record's data.
func (s *RecordService) Merge(ctx context.Context, actor *domain.User, recordID string, patch map[string]any) (*domain.Record, error) {
	record, err := s.record(ctx, actor, recordID, domain.ActionEdit)
	if err != nil {
		return nil, err
	}
	for key, value := range patch {
		record.Data[key] = value
	}
	return s.save(ctx, actor, record)
}

// Replace overwrites the record's data, as the edit form does.
func (s *RecordService) Replace(ctx context.Context, actor *domain.User, recordID string, data map[string]any) (*domain.Record, error) {
	record, err := s.record(ctx, actor, recordID, domain.ActionEdit)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	record.Data = data
	return s.save(ctx, actor, record)
}

// UpdateCell sets a single column, for inline grid editing.
func (s *RecordService) UpdateCell(ctx context.Context, actor *domain.User, recordID, column string, value any) (*domain.Record, error) {
	record, err := s.record(ctx, actor, recordID, domain.ActionEdit)
	if err != nil {
		return nil, err
	}
	column = strings.TrimSpace(column)
	if column == "" {
		return nil, apperrors.NewValidationError("Column name required", nil)
	}
	record.Data[column] = value
	return s.save(ctx, actor, record)
}

func (s *RecordService) save(ctx context.Context, actor *domain.User, record *domain.Record) (*domain.Record, error) {
	record.UpdatedBy = actorRef(actor)
	if err := s.records.UpdateData(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.publish(ctx, events.EventRecordUpdated, record.ID, actor, events.RecordPayload{TabID: record.TabID})
	return record, nil
}

// Delete removes a record.
func (s *RecordService) Delete(ctx context.Context, actor *domain.User, recordID string) (*domain.Record, error) {
	record, err := s.record(ctx, actor, recordID, domain.ActionDelete)
	if err != nil {
		return nil, err
	}
	if err := s.records.Delete(ctx, record.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.publish(ctx, events.EventRecordDeleted, record.ID, actor, events.RecordPayload{TabID: record.TabID})
	return record, nil
}

// DecodeObject parses a JSON object. Anything else, including arrays and
// scalars, is rejected.
func DecodeObject(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, apperrors.NewValidationError("Invalid JSON", nil)
	}
	if data == nil {
		return nil, apperrors.NewValidationError("Invalid JSON", nil)
	}
	return data, nil
}

// FormData builds record data from the add-record form. A non-empty JSON
// object in data_json wins; otherwise non-blank field_<column> values for the
// known columns and dynamic_col_<n>/dynamic_val_<n> pairs are collected.
func FormData(columns []string, form map[string]string) map[string]any {
	if raw, ok := form["data_json"]; ok {
		if data, err := DecodeObject([]byte(raw)); err == nil && len(data) > 0 {
			return data
		}
	}

	data := map[string]any{}
	for _, column := range columns {
		if value := strings.TrimSpace(form["field_"+column]); value != "" {
			data[column] = value
		}
	}

	keys := make([]string, 0, len(form))
	for key := range form {
		if strings.HasPrefix(key, "dynamic_col_") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		n := strings.TrimPrefix(key, "dynamic_col_")
		name := strings.TrimSpace(form[key])
		value := strings.TrimSpace(form["dynamic_val_"+n])
		if name != "" && value != "" {
			data[name] = value
		}
	}
	return data
}
