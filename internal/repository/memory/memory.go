// Package memory provides process-local repositories. The server falls back to
// them when no database is configured, and tests use them as fakes.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/repository"
)

// Store holds every table. Repositories built from the same Store share data.
type Store struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	departments map[string]*domain.Department
	tabs        map[string]*domain.Tab
	records     map[string]*domain.Record
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       map[string]*domain.User{},
		departments: map[string]*domain.Department{},
		tabs:        map[string]*domain.Tab{},
		records:     map[string]*domain.Record{},
	}
}

type userRepo struct{ *Store }

// NewUserRepository returns a repository over s.
func NewUserRepository(s *Store) repository.UserRepository {
	return userRepo{s}
}

func (m userRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (m userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m userRepo) TakenFields(_ context.Context, username, email, employeeID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	taken := map[string]bool{}
	for _, u := range m.users {
		taken["username"] = taken["username"] || u.Username == username
		taken["email"] = taken["email"] || strings.EqualFold(u.Email, email)
		taken["employee_id"] = taken["employee_id"] || u.EmployeeID == employeeID
	}
	var fields []string
	for _, name := range []string{"username", "email", "employee_id"} {
		if taken[name] {
			fields = append(fields, name)
		}
	}
	return fields, nil
}

type departmentRepo struct{ *Store }

// NewDepartmentRepository returns a repository over s.
func NewDepartmentRepository(s *Store) repository.DepartmentRepository {
	return departmentRepo{s}
}

func (m departmentRepo) Create(_ context.Context, dept *domain.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dept.ID = uuid.NewString()
	dept.CreatedAt = time.Now()
	cp := *dept
	m.departments[dept.ID] = &cp
	return nil
}

func (m departmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.departments[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (m departmentRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.departments {
		if d.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m departmentRepo) List(_ context.Context) ([]domain.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Department
	for _, d := range m.departments {
		cp := *d
		for _, t := range m.tabs {
			if t.DepartmentID == d.ID {
				cp.Tabs = append(cp.Tabs, *t)
			}
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	for i := range result {
		sort.Slice(result[i].Tabs, func(a, b int) bool { return result[i].Tabs[a].Name < result[i].Tabs[b].Name })
	}
	return result, nil
}

type tabRepo struct{ *Store }

// NewTabRepository returns a repository over s.
func NewTabRepository(s *Store) repository.TabRepository {
	return tabRepo{s}
}

func (m tabRepo) Create(_ context.Context, tab *domain.Tab) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab.ID = uuid.NewString()
	tab.CreatedAt = time.Now()
	cp := *tab
	m.tabs[tab.ID] = &cp
	return nil
}

func (m tabRepo) GetByID(_ context.Context, id string) (*domain.Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tabs[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (m tabRepo) NameTaken(_ context.Context, departmentID, name, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tabs {
		if t.DepartmentID == departmentID && t.Name == name && t.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m tabRepo) Rename(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Name = name
	return nil
}

func (m tabRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tabs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.tabs, id)
	for rid, r := range m.records {
		if r.TabID == id {
			delete(m.records, rid)
		}
	}
	return nil
}

type recordRepo struct{ *Store }

// NewRecordRepository returns a repository over s.
func NewRecordRepository(s *Store) repository.RecordRepository {
	return recordRepo{s}
}

func cloneData(data map[string]any) map[string]any {
	cp := make(map[string]any, len(data))
	for k, v := range data {
		cp[k] = v
	}
	return cp
}

func (m recordRepo) Create(_ context.Context, record *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.ID = uuid.NewString()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	cp := *record
	cp.Data = cloneData(record.Data)
	m.records[record.ID] = &cp
	return nil
}

func (m recordRepo) CreateMany(ctx context.Context, records []domain.Record) (int, error) {
	for i := range records {
		if err := m.Create(ctx, &records[i]); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

func (m recordRepo) GetByID(_ context.Context, id string) (*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		cp := *r
		cp.Data = cloneData(r.Data)
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (m recordRepo) ListByTab(_ context.Context, tabID string) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Record
	for _, r := range m.records {
		if r.TabID == tabID {
			cp := *r
			cp.Data = cloneData(r.Data)
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m recordRepo) UpdateData(_ context.Context, record *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[record.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	r.Data = cloneData(record.Data)
	r.UpdatedBy = record.UpdatedBy
	r.UpdatedAt = time.Now()
	record.UpdatedAt = r.UpdatedAt
	return nil
}

func (m recordRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.records, id)
	return nil
}

