package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/events"
	"github.com/spec-kit/data-portal/internal/repository"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

// PortalService manages departments and their tabs.
type PortalService struct {
	departments repository.DepartmentRepository
	tabs        repository.TabRepository
	audit       publisher
}

// PortalDependencies encapsulates repositories required for the portal.
type PortalDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	TabRepo        repository.TabRepository
}

// NewPortalService constructs the service.
func NewPortalService(deps PortalDependencies, dispatcher events.Dispatcher, logger *zap.Logger) *PortalService {
	return &PortalService{
		departments: deps.DepartmentRepo,
		tabs:        deps.TabRepo,
		audit:       publisher{dispatcher: dispatcher, logger: logger},
	}
}

func requireManage(actor *domain.User) error {
	if !actor.CanManageTabs() {
		return permissionDenied()
	}
	return nil
}

// ListDepartments returns every department with its tabs, for the dashboard.
func (s *PortalService) ListDepartments(ctx context.Context, actor *domain.User) ([]domain.Department, error) {
	if !actor.HasPermission(domain.ActionView) {
		return nil, permissionDenied()
	}
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

// CreateDepartment creates a department with a unique name.
func (s *PortalService) CreateDepartment(ctx context.Context, actor *domain.User, name, description string) (*domain.Department, error) {
	if err := requireManage(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("Department name is required", nil)
	}
	exists, err := s.departments.ExistsByName(ctx, name)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return nil, apperrors.NewConflict("Department already exists", map[string]any{"name": name})
	}

	dept := &domain.Department{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   actorRef(actor),
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("Department already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	s.audit.publish(ctx, events.EventDepartmentCreated, dept.ID, actor, events.DepartmentPayload{Name: dept.Name})
	return dept, nil
}

// GetTab fetches a tab the actor may view, with its department.
func (s *PortalService) GetTab(ctx context.Context, actor *domain.User, id string) (*domain.Tab, *domain.Department, error) {
	if !actor.HasPermission(domain.ActionView) {
		return nil, nil, permissionDenied()
	}
	tab, err := lookup("Tab", id, func() (*domain.Tab, error) { return s.tabs.GetByID(ctx, id) })
	if err != nil {
		return nil, nil, err
	}
	dept, err := s.departments.GetByID(ctx, tab.DepartmentID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return tab, dept, nil
}

// RequireManager fails with 403 unless actor may manage departments and tabs.
func (s *PortalService) RequireManager(actor *domain.User) error {
	return requireManage(actor)
}

// ManagedDepartment resolves a department the actor is about to change.
// Permission is checked before existence.
func (s *PortalService) ManagedDepartment(ctx context.Context, actor *domain.User, id string) (*domain.Department, error) {
	if err := requireManage(actor); err != nil {
		return nil, err
	}
	return lookup("Department", id, func() (*domain.Department, error) {
		return s.departments.GetByID(ctx, id)
	})
}

// ManagedTab resolves a tab the actor is about to change.
func (s *PortalService) ManagedTab(ctx context.Context, actor *domain.User, id string) (*domain.Tab, error) {
	if err := requireManage(actor); err != nil {
		return nil, err
	}
	return lookup("Tab", id, func() (*domain.Tab, error) { return s.tabs.GetByID(ctx, id) })
}

// CreateTab adds a tab to a department. Names are unique per department.
func (s *PortalService) CreateTab(ctx context.Context, actor *domain.User, departmentID, name, description string) (*domain.Tab, error) {
	dept, err := s.ManagedDepartment(ctx, actor, departmentID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("Tab name is required", nil)
	}
	taken, err := s.tabs.NameTaken(ctx, dept.ID, name, "")
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if taken {
		return nil, apperrors.NewConflict("Tab already exists in this department", map[string]any{"name": name})
	}

	tab := &domain.Tab{
		DepartmentID: dept.ID,
		Name:         name,
		Description:  strings.TrimSpace(description),
		CreatedBy:    actorRef(actor),
	}
	if err := s.tabs.Create(ctx, tab); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("Tab already exists in this department", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	s.audit.publish(ctx, events.EventTabCreated, tab.ID, actor, events.TabPayload{DepartmentID: dept.ID, Name: tab.Name})
	return tab, nil
}

// RenameTab renames a tab, keeping names unique among its siblings.
func (s *PortalService) RenameTab(ctx context.Context, actor *domain.User, tabID, name string) (*domain.Tab, error) {
	tab, err := s.ManagedTab(ctx, actor, tabID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("Tab name is required", nil)
	}
	taken, err := s.tabs.NameTaken(ctx, tab.DepartmentID, name, tab.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if taken {
		return nil, apperrors.NewConflict("Tab name already exists in this department", map[string]any{"name": name})
	}

	oldName := tab.Name
	if err := s.tabs.Rename(ctx, tab.ID, name); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("Tab name already exists in this department", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	tab.Name = name
	s.audit.publish(ctx, events.EventTabRenamed, tab.ID, actor, events.TabRenamedPayload{OldName: oldName, NewName: name})
	return tab, nil
}

// DeleteTab removes a tab and, by cascade, its records.
func (s *PortalService) DeleteTab(ctx context.Context, actor *domain.User, tabID string) (*domain.Tab, error) {
	tab, err := s.ManagedTab(ctx, actor, tabID)
	if err != nil {
		return nil, err
	}
	if err := s.tabs.Delete(ctx, tab.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.audit.publish(ctx, events.EventTabDeleted, tab.ID, actor, events.TabPayload{DepartmentID: tab.DepartmentID, Name: tab.Name})
	return tab, nil
}
