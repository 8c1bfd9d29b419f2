package portalui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Event types dispatched through a Document.
const (
	EventClick = "click"
	EventBlur  = "blur"
)

const (
	activeClass = "active"
	modalClass  = "modal"
)

// Event describes a dispatched UI event.
type Event struct {
	Type   string
	Target *Element
}

// Listener reacts to an Event.
type Listener func(Event)

// Document is a headless model of a server-rendered page. It keeps the
// presentation state the controller manipulates (classes, inline styles, field
// values) and dispatches events to registered listeners.
type Document struct {
	mu        sync.RWMutex
	path      string
	elements  []*Element
	byID      map[string]*Element
	listeners map[string][]Listener
}

// Element is a single node of a Document.
type Element struct {
	doc       *Document
	id        string
	tag       string
	attrs     map[string]string
	classes   map[string]struct{}
	value     string
	style     map[string]string
	listeners map[string][]Listener
}

// ParseDocument builds a Document from HTML. path records where the page was
// loaded from so a reload can fetch it again.
func ParseDocument(path string, r io.Reader) (*Document, error) {
	parsed, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	doc := &Document{
		path:      path,
		byID:      make(map[string]*Element),
		listeners: make(map[string][]Listener),
	}

	parsed.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		el := newElement(doc, sel)
		doc.elements = append(doc.elements, el)
		if el.id == "" {
			return
		}
		// getElementById semantics: first one wins.
		if _, exists := doc.byID[el.id]; !exists {
			doc.byID[el.id] = el
		}
	})
	return doc, nil
}

func newElement(doc *Document, sel *goquery.Selection) *Element {
	el := &Element{
		doc:       doc,
		tag:       goquery.NodeName(sel),
		attrs:     make(map[string]string),
		classes:   make(map[string]struct{}),
		style:     make(map[string]string),
		listeners: make(map[string][]Listener),
	}
	if len(sel.Nodes) > 0 {
		for _, attr := range sel.Nodes[0].Attr {
			el.attrs[attr.Key] = attr.Val
		}
	}
	el.id = el.attrs["id"]
	for _, class := range strings.Fields(el.attrs["class"]) {
		el.classes[class] = struct{}{}
	}
	switch el.tag {
	case "textarea":
		el.value = sel.Text()
	case "input":
		el.value = el.attrs["value"]
	case "select":
		el.value, _ = sel.Find("option[selected]").First().Attr("value")
	}
	return el
}

// Path returns the location the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

// ElementByID returns the first element with the given id, or nil.
func (d *Document) ElementByID(id string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.byID[id]
}

// Select returns the elements matching keep, in document order.
func (d *Document) Select(keep func(*Element) bool) []*Element {
	d.mu.RLock()
	all := append([]*Element(nil), d.elements...)
	d.mu.RUnlock()

	var out []*Element
	for _, el := range all {
		if keep(el) {
			out = append(out, el)
		}
	}
	return out
}

// ActiveModals returns every modal currently shown.
func (d *Document) ActiveModals() []*Element {
	return d.Select(func(el *Element) bool {
		return el.HasClass(modalClass) && el.HasClass(activeClass)
	})
}

// DataFields returns the textareas named "data".
func (d *Document) DataFields() []*Element {
	return d.Select(func(el *Element) bool {
		return el.Tag() == "textarea" && el.Attr("name") == "data"
	})
}

// ShowModal marks the modal with the given id as active. Unknown ids are ignored.
func (d *Document) ShowModal(id string) {
	if modal := d.ElementByID(id); modal != nil {
		modal.AddClass(activeClass)
	}
}

// HideModal clears the active state of the modal with the given id. Unknown ids
// are ignored.
func (d *Document) HideModal(id string) {
	if modal := d.ElementByID(id); modal != nil {
		modal.RemoveClass(activeClass)
	}
}

// AddEventListener registers a document level listener. Events dispatched on
// any element reach it after the element's own listeners.
func (d *Document) AddEventListener(eventType string, fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], fn)
}

// Dispatch delivers an event to target's listeners and then to the document's.
func (d *Document) Dispatch(eventType string, target *Element) {
	d.mu.RLock()
	var fns []Listener
	if target != nil {
		fns = append(fns, target.listeners[eventType]...)
	}
	fns = append(fns, d.listeners[eventType]...)
	d.mu.RUnlock()

	ev := Event{Type: eventType, Target: target}
	for _, fn := range fns {
		fn(ev)
	}
}

// Click dispatches a click on target.
func (d *Document) Click(target *Element) {
	d.Dispatch(EventClick, target)
}

// Blur dispatches a blur on target.
func (d *Document) Blur(target *Element) {
	d.Dispatch(EventBlur, target)
}

// ID returns the element id, empty when the element has none.
func (e *Element) ID() string {
	return e.id
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return e.tag
}

// Attr returns the attribute value, empty when absent.
func (e *Element) Attr(name string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.attrs[name]
}

// Data returns the data-* attribute named key.
func (e *Element) Data(key string) string {
	return e.Attr("data-" + key)
}

// HasClass reports whether the element carries class.
func (e *Element) HasClass(class string) bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	_, ok := e.classes[class]
	return ok
}

// AddClass adds class to the element.
func (e *Element) AddClass(class string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.classes[class] = struct{}{}
}

// RemoveClass removes class from the element.
func (e *Element) RemoveClass(class string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	delete(e.classes, class)
}

// Value returns the current form value.
func (e *Element) Value() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.value
}

// SetValue replaces the form value, as typing into the field would.
func (e *Element) SetValue(value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.value = value
}

// Style returns an inline style property, empty when unset.
func (e *Element) Style(property string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.style[property]
}

// SetStyle sets an inline style property.
func (e *Element) SetStyle(property, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.style[property] = value
}

// AddEventListener registers fn for events of eventType on this element.
func (e *Element) AddEventListener(eventType string, fn Listener) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.listeners[eventType] = append(e.listeners[eventType], fn)
}
