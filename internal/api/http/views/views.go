package views

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/spec-kit/data-portal/internal/domain"
)

//go:embed templates/*.html
var files embed.FS

// Page is the data every template receives.
type Page struct {
	Title     string
	User      *domain.User
	CSRFToken string
	CSRFField string
	Flash     string
	Error     string
	Errors    map[string]any
	Data      any
}

// Renderer holds one parsed template set per page, each layered on the base
// layout.
type Renderer struct {
	pages map[string]*template.Template
}

// descriptions may carry light markup; anything outside the UGC policy is
// dropped at render time while the stored text stays as typed.
var descriptionPolicy = bluemonday.UGCPolicy()

var funcs = template.FuncMap{
	"richText": func(s string) template.HTML {
		return template.HTML(descriptionPolicy.Sanitize(s)) //nolint:gosec
	},
	"cell": func(row map[string]any, column string) string {
		v, ok := row[column]
		if !ok || v == nil {
			return ""
		}
		if s, ok := v.(string); ok {
			return s
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	},
	"fieldError": func(errs map[string]any, field string) string {
		if errs == nil {
			return ""
		}
		if v, ok := errs[field]; ok {
			return fmt.Sprint(v)
		}
		return ""
	},
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, name := range names {
		page := strings.TrimSuffix(path.Base(name), ".html")
		if page == "base" {
			continue
		}
		t, err := template.New(page).Funcs(funcs).ParseFS(files, "templates/base.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render writes page to w.
func (r *Renderer) Render(w io.Writer, page string, data Page) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// DashboardData feeds the dashboard page.
type DashboardData struct {
	Departments   []domain.Department
	CanManageTabs bool
}

// RecordEditData feeds the edit-record page.
type RecordEditData struct {
	Tab      *domain.Tab
	RecordID string
	JSON     string
}

// AddRecordData feeds the add-record page.
type AddRecordData struct {
	Tab     *domain.Tab
	Columns []string
}
