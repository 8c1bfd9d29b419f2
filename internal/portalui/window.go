package portalui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Dialogs are the blocking user dialogs a page can open.
type Dialogs interface {
	Alert(message string)
	Confirm(message string) bool
	Prompt(message string) (string, bool)
}

// Window hosts one loaded page at a time. Loading a page captures a fresh CSRF
// session and controller, so a reload discards every piece of client state.
type Window struct {
	client  *Client
	dialogs Dialogs
	logger  *zap.Logger

	mu         sync.RWMutex
	doc        *Document
	controller *Controller
	status     int
}

// NewWindow creates an empty window; call Load before dispatching events.
func NewWindow(client *Client, dialogs Dialogs, logger *zap.Logger) *Window {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Window{client: client, dialogs: dialogs, logger: logger}
}

// Load fetches path, parses it and binds a new controller to it.
func (w *Window) Load(ctx context.Context, path string) error {
	body, status, err := w.client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	doc, err := ParseDocument(path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	controller := NewController(w.client, w, NewSession(w.client.Cookies()), w.logger)

	w.mu.Lock()
	w.doc = doc
	w.controller = controller
	w.status = status
	w.mu.Unlock()

	controller.Bind(ctx, doc)
	w.logger.Debug("page loaded", zap.String("path", path), zap.Int("status", status))
	return nil
}

// Document returns the page currently shown, nil before the first Load.
func (w *Window) Document() *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.doc
}

// Controller returns the controller bound to the current page.
func (w *Window) Controller() *Controller {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.controller
}

// Status returns the HTTP status of the last page load.
func (w *Window) Status() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// Click dispatches a click on the element with the given id.
func (w *Window) Click(id string) error {
	doc := w.Document()
	if doc == nil {
		return errors.New("no page loaded")
	}
	el := doc.ElementByID(id)
	if el == nil {
		return fmt.Errorf("element %q not found on %s", id, doc.Path())
	}
	doc.Click(el)
	return nil
}

// FieldValue returns the value of the form field with the given id, empty when
// the page has no such field.
func (w *Window) FieldValue(id string) string {
	doc := w.Document()
	if doc == nil {
		return ""
	}
	if el := doc.ElementByID(id); el != nil {
		return el.Value()
	}
	return ""
}

// SetFieldValue types value into the field with the given id.
func (w *Window) SetFieldValue(id, value string) error {
	doc := w.Document()
	if doc == nil {
		return errors.New("no page loaded")
	}
	el := doc.ElementByID(id)
	if el == nil {
		return fmt.Errorf("field %q not found on %s", id, doc.Path())
	}
	el.SetValue(value)
	return nil
}

func (w *Window) Alert(message string) {
	w.dialogs.Alert(message)
}

func (w *Window) Confirm(message string) bool {
	return w.dialogs.Confirm(message)
}

func (w *Window) Prompt(message string) (string, bool) {
	return w.dialogs.Prompt(message)
}

func (w *Window) ShowModal(id string) {
	if doc := w.Document(); doc != nil {
		doc.ShowModal(id)
	}
}

func (w *Window) HideModal(id string) {
	if doc := w.Document(); doc != nil {
		doc.HideModal(id)
	}
}

// Reload fetches the current page again.
func (w *Window) Reload(ctx context.Context) {
	doc := w.Document()
	if doc == nil {
		return
	}
	if err := w.Load(ctx, doc.Path()); err != nil {
		w.logger.Error("reload failed", zap.String("path", doc.Path()), zap.Error(err))
	}
}
