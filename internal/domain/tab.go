package domain

import "time"

// Tab is a data category inside a department.
type Tab struct {
	ID           string
	DepartmentID string
	Name         string
	Description  string
	CreatedBy    *string
	CreatedAt    time.Time
}
