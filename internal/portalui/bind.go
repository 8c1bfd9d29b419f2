package portalui

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Values of the data-action attribute understood by Bind.
const (
	ActionShowModal        = "show-modal"
	ActionHideModal        = "hide-modal"
	ActionCreateDepartment = "create-department"
	ActionCreateTab        = "create-tab"
	ActionRenameTab        = "rename-tab"
	ActionDeleteTab        = "delete-tab"
	ActionDeleteRecord     = "delete-record"
)

// Bind wires a freshly loaded document: backdrop clicks close modals, JSON
// text fields are validated on blur and data-action buttons trigger the
// matching controller action.
func (c *Controller) Bind(ctx context.Context, doc *Document) {
	doc.AddEventListener(EventClick, func(ev Event) {
		for _, modal := range doc.ActiveModals() {
			if ev.Target == modal {
				modal.RemoveClass(activeClass)
			}
		}
	})

	for _, field := range doc.DataFields() {
		watchJSONField(field)
	}

	listener := c.actionListener(ctx, &modalTarget{})
	for _, button := range doc.Select(func(el *Element) bool { return el.Data("action") != "" }) {
		button.AddEventListener(EventClick, listener)
	}
}

// modalTarget remembers the department a shared create-tab modal was opened
// for.
type modalTarget struct {
	mu           sync.Mutex
	departmentID string
}

func (t *modalTarget) set(id string) {
	t.mu.Lock()
	t.departmentID = id
	t.mu.Unlock()
}

func (t *modalTarget) get() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.departmentID
}

func (c *Controller) actionListener(ctx context.Context, target *modalTarget) Listener {
	return func(ev Event) {
		el := ev.Target
		switch action := el.Data("action"); action {
		case ActionShowModal:
			if id := el.Data("department-id"); id != "" {
				target.set(id)
			}
			c.ui.ShowModal(el.Data("modal"))
		case ActionHideModal:
			c.ui.HideModal(el.Data("modal"))
		case ActionCreateDepartment:
			c.Go(ctx, c.CreateDepartment)
		case ActionCreateTab:
			departmentID := el.Data("department-id")
			if departmentID == "" {
				departmentID = target.get()
			}
			c.Go(ctx, func(ctx context.Context) Outcome { return c.CreateTab(ctx, departmentID) })
		case ActionRenameTab:
			tabID := el.Data("tab-id")
			c.Go(ctx, func(ctx context.Context) Outcome { return c.RenameTab(ctx, tabID) })
		case ActionDeleteTab:
			tabID, tabName := el.Data("tab-id"), el.Data("tab-name")
			c.Go(ctx, func(ctx context.Context) Outcome { return c.DeleteTab(ctx, tabID, tabName) })
		case ActionDeleteRecord:
			recordID := el.Data("record-id")
			c.Go(ctx, func(ctx context.Context) Outcome { return c.DeleteRecord(ctx, recordID) })
		default:
			c.logger.Debug("ignoring unknown action", zap.String("action", action))
		}
	}
}
