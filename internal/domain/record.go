package domain

import (
	"sort"
	"time"
)

// Record is a free-form row of tab data. Data is normally a JSON object.
type Record struct {
	ID        string
	TabID     string
	Data      map[string]any
	CreatedBy *string
	UpdatedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Columns returns the sorted union of keys across records, always including
// "id".
func Columns(records []Record) []string {
	seen := map[string]struct{}{"id": {}}
	for _, r := range records {
		for key := range r.Data {
			seen[key] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

// Row flattens the record into a grid row keyed by column, with "id" set to
// the record id.
func (r Record) Row() map[string]any {
	row := make(map[string]any, len(r.Data)+1)
	for key, value := range r.Data {
		row[key] = value
	}
	row["id"] = r.ID
	return row
}
