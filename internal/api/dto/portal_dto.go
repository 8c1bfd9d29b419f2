package dto

import "github.com/spec-kit/data-portal/internal/domain"

// NameRequest is the body of create-department, create-tab and rename-tab.
type NameRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CellUpdateRequest is the body of update-cell.
type CellUpdateRequest struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// DepartmentResponse is returned after creating a department.
type DepartmentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TabResponse is returned after creating or renaming a tab.
type TabResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewDepartmentResponse maps the domain model.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Name: d.Name, Description: d.Description}
}

// NewTabResponse maps the domain model.
func NewTabResponse(t *domain.Tab) TabResponse {
	return TabResponse{ID: t.ID, Name: t.Name, Description: t.Description}
}

// RecordsResponse is the grid payload of the records API.
type RecordsResponse struct {
	Data      []map[string]any `json:"data"`
	Columns   []string         `json:"columns"`
	CanEdit   bool             `json:"can_edit"`
	CanDelete bool             `json:"can_delete"`
}

// RecordResponse is returned by record create and update.
type RecordResponse struct {
	Success bool           `json:"success"`
	ID      string         `json:"id"`
	Data    map[string]any `json:"data"`
}
