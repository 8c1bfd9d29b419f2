package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates audit events emitted by portal mutations.
type EventType string

const (
	EventDepartmentCreated EventType = "department_created"
	EventTabCreated        EventType = "tab_created"
	EventTabRenamed        EventType = "tab_renamed"
	EventTabDeleted        EventType = "tab_deleted"
	EventRecordCreated     EventType = "record_created"
	EventRecordUpdated     EventType = "record_updated"
	EventRecordDeleted     EventType = "record_deleted"
	EventRecordsImported   EventType = "records_imported"
)

// AllTypes lists every event type, in emission order of a typical session.
var AllTypes = []EventType{
	EventDepartmentCreated,
	EventTabCreated,
	EventTabRenamed,
	EventTabDeleted,
	EventRecordCreated,
	EventRecordUpdated,
	EventRecordDeleted,
	EventRecordsImported,
}

// Event is an audit entry for one mutation.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, subjectID, actorID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// DepartmentPayload describes a created department.
type DepartmentPayload struct {
	Name string `json:"name"`
}

// TabPayload describes a created or deleted tab.
type TabPayload struct {
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
}

// TabRenamedPayload carries both names.
type TabRenamedPayload struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// RecordPayload identifies the tab a record belongs to.
type RecordPayload struct {
	TabID string `json:"tab_id"`
}

// ImportPayload summarises a spreadsheet import.
type ImportPayload struct {
	TabID    string `json:"tab_id"`
	FileName string `json:"file_name"`
	Rows     int    `json:"rows"`
}
