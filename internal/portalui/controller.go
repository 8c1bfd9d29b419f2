package portalui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Element ids shared with the server-rendered templates.
const (
	FieldDepartmentName        = "departmentName"
	FieldDepartmentDescription = "departmentDescription"
	FieldTabName               = "tabName"
	FieldTabDescription        = "tabDescription"

	ModalCreateDepartment = "createDepartmentModal"
	ModalCreateTab        = "createTabModal"
)

const unknownError = "Unknown error"

// UI is the page binding the controller works through.
type UI interface {
	FieldValue(id string) string
	Alert(message string)
	Confirm(message string) bool
	Prompt(message string) (string, bool)
	ShowModal(id string)
	HideModal(id string)
	Reload(ctx context.Context)
}

// Outcome reports which branch a mutation took.
type Outcome int

const (
	// OutcomeAborted means the user declined a confirmation or cancelled a prompt.
	OutcomeAborted Outcome = iota
	// OutcomeInvalid means a required field was empty; nothing was sent.
	OutcomeInvalid
	// OutcomeSucceeded means the server reported success and the page reloaded.
	OutcomeSucceeded
	// OutcomeRejected means the server answered with a falsy success.
	OutcomeRejected
	// OutcomeFailed means the request or its decoding failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAborted:
		return "aborted"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type namePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type renamePayload struct {
	Name string `json:"name"`
}

type mutation struct {
	path      string
	payload   any
	modal     string
	succeeded string
	failed    string
}

// Controller maps portal UI actions onto the server's mutation endpoints.
type Controller struct {
	client  *Client
	ui      UI
	session Session
	logger  *zap.Logger

	inflight sync.WaitGroup
	mu       sync.Mutex
	finished []Outcome
}

// NewController wires a controller. session is captured when the page loads
// and reused for every request.
func NewController(client *Client, ui UI, session Session, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{client: client, ui: ui, session: session, logger: logger}
}

// CreateDepartment submits the create-department modal.
func (c *Controller) CreateDepartment(ctx context.Context) Outcome {
	name := strings.TrimSpace(c.ui.FieldValue(FieldDepartmentName))
	description := strings.TrimSpace(c.ui.FieldValue(FieldDepartmentDescription))
	if name == "" {
		c.ui.Alert("Please enter a department name")
		return OutcomeInvalid
	}
	return c.submit(ctx, mutation{
		path:      "/create-department/",
		payload:   namePayload{Name: name, Description: description},
		modal:     ModalCreateDepartment,
		succeeded: "Department created successfully!",
		failed:    "Failed to create department",
	})
}

// CreateTab submits the create-tab modal for departmentID.
func (c *Controller) CreateTab(ctx context.Context, departmentID string) Outcome {
	name := strings.TrimSpace(c.ui.FieldValue(FieldTabName))
	description := strings.TrimSpace(c.ui.FieldValue(FieldTabDescription))
	if name == "" {
		c.ui.Alert("Please enter a tab name")
		return OutcomeInvalid
	}
	return c.submit(ctx, mutation{
		path:      "/create-tab/" + url.PathEscape(departmentID) + "/",
		payload:   namePayload{Name: name, Description: description},
		modal:     ModalCreateTab,
		succeeded: "Tab created successfully!",
		failed:    "Failed to create tab",
	})
}

// RenameTab asks for a new name and renames tabID.
func (c *Controller) RenameTab(ctx context.Context, tabID string) Outcome {
	answer, ok := c.ui.Prompt("Enter new tab name:")
	name := strings.TrimSpace(answer)
	if !ok || name == "" {
		return OutcomeAborted
	}
	return c.submit(ctx, mutation{
		path:      "/rename-tab/" + url.PathEscape(tabID) + "/",
		payload:   renamePayload{Name: name},
		succeeded: "Tab renamed successfully!",
		failed:    "Failed to rename tab",
	})
}

// DeleteTab deletes tabID after confirmation.
func (c *Controller) DeleteTab(ctx context.Context, tabID, tabName string) Outcome {
	if !c.ui.Confirm(`Are you sure you want to delete the tab "` + tabName + `"?`) {
		return OutcomeAborted
	}
	return c.submit(ctx, mutation{
		path:      "/delete-tab/" + url.PathEscape(tabID) + "/",
		succeeded: "Tab deleted successfully!",
		failed:    "Failed to delete tab",
	})
}

// DeleteRecord deletes recordID after confirmation.
func (c *Controller) DeleteRecord(ctx context.Context, recordID string) Outcome {
	if !c.ui.Confirm("Are you sure you want to delete this record?") {
		return OutcomeAborted
	}
	return c.submit(ctx, mutation{
		path:      "/record/" + url.PathEscape(recordID) + "/delete/",
		succeeded: "Record deleted successfully!",
		failed:    "Failed to delete record",
	})
}

func (c *Controller) submit(ctx context.Context, m mutation) Outcome {
	result, err := c.client.PostJSON(ctx, c.session, m.path, m.payload)
	if err != nil {
		c.logger.Error("portal request failed", zap.String("path", m.path), zap.Error(err))
		c.ui.Alert(m.failed)
		return OutcomeFailed
	}
	if !result.Success() {
		c.ui.Alert("Error: " + result.ErrorMessage(unknownError))
		return OutcomeRejected
	}
	if m.modal != "" {
		c.ui.HideModal(m.modal)
	}
	c.ui.Alert(m.succeeded)
	c.ui.Reload(ctx)
	return OutcomeSucceeded
}

// Go runs action on its own goroutine so the caller keeps servicing events.
// Concurrent identical actions are not de-duplicated.
func (c *Controller) Go(ctx context.Context, action func(context.Context) Outcome) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		outcome := action(ctx)
		c.logger.Debug("portal action finished", zap.Stringer("outcome", outcome))
		c.mu.Lock()
		c.finished = append(c.finished, outcome)
		c.mu.Unlock()
	}()
}

// Wait blocks until every action started with Go has finished and returns
// their outcomes in completion order. Each outcome is returned once.
func (c *Controller) Wait() []Outcome {
	c.inflight.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	outcomes := c.finished
	c.finished = nil
	return outcomes
}
