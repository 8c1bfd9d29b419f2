package domain

import "time"

// Department groups tabs.
type Department struct {
	ID          string
	Name        string
	Description string
	CreatedBy   *string
	CreatedAt   time.Time
	Tabs        []Tab
}
