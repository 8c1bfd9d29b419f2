package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/events"
	"github.com/spec-kit/data-portal/internal/repository"
	"github.com/spec-kit/data-portal/internal/repository/memory"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

func newPortalFixture() (*PortalService, repository.TabRepository, *recordedEvents) {
	store := memory.NewStore()
	tabs := memory.NewTabRepository(store)
	rec := &recordedEvents{}
	svc := NewPortalService(PortalDependencies{
		DepartmentRepo: memory.NewDepartmentRepository(store),
		TabRepo:        tabs,
	}, rec, zap.NewNop())
	return svc, tabs, rec
}

func requireDomainError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.Equal(t, status, de.HTTPStatus)
	require.Equal(t, message, de.Message)
}

func TestPortalService_CreateDepartment(t *testing.T) {
	svc, _, rec := newPortalFixture()
	ctx := context.Background()
	director := actor(domain.RoleDirector)

	dept, err := svc.CreateDepartment(ctx, director, "  <b>Genomics</b> ", " DNA & RNA ")
	require.NoError(t, err)
	require.Equal(t, "<b>Genomics</b>", dept.Name)
	require.Equal(t, "DNA & RNA", dept.Description)
	require.Equal(t, director.ID, *dept.CreatedBy)

	_, err = svc.CreateDepartment(ctx, director, "<b>Genomics</b>", "")
	requireDomainError(t, err, http.StatusBadRequest, "Department already exists")

	for _, name := range []string{"<Lab>", "AT&T <Research>", "a<b>c", "R&amp;D"} {
		stored, err := svc.CreateDepartment(ctx, director, name, "")
		require.NoError(t, err, name)
		require.Equal(t, name, stored.Name)
	}

	_, err = svc.CreateDepartment(ctx, director, "   ", "")
	requireDomainError(t, err, http.StatusBadRequest, "Department name is required")

	_, err = svc.CreateDepartment(ctx, actor(domain.RoleStaff), "Proteomics", "")
	requireDomainError(t, err, http.StatusForbidden, "Permission denied")

	require.Equal(t, []events.EventType{
		events.EventDepartmentCreated,
		events.EventDepartmentCreated,
		events.EventDepartmentCreated,
		events.EventDepartmentCreated,
		events.EventDepartmentCreated,
	}, rec.types())
}

func TestPortalService_TabLifecycle(t *testing.T) {
	svc, tabs, rec := newPortalFixture()
	ctx := context.Background()
	scientist := actor(domain.RoleScientist)

	dept, err := svc.CreateDepartment(ctx, scientist, "Chemistry", "")
	require.NoError(t, err)

	samples, err := svc.CreateTab(ctx, scientist, dept.ID, " Samples ", "raw")
	require.NoError(t, err)
	require.Equal(t, "Samples", samples.Name)

	_, err = svc.CreateTab(ctx, scientist, dept.ID, "Samples", "")
	requireDomainError(t, err, http.StatusBadRequest, "Tab already exists in this department")

	_, err = svc.CreateTab(ctx, scientist, dept.ID, "", "")
	requireDomainError(t, err, http.StatusBadRequest, "Tab name is required")

	_, err = svc.CreateTab(ctx, scientist, uuid.NewString(), "Orphan", "")
	requireDomainError(t, err, http.StatusNotFound, "Department not found")

	_, err = svc.CreateTab(ctx, scientist, "not-a-uuid", "Orphan", "")
	requireDomainError(t, err, http.StatusNotFound, "Department not found")

	results, err := svc.CreateTab(ctx, scientist, dept.ID, "Results", "")
	require.NoError(t, err)

	_, err = svc.RenameTab(ctx, scientist, results.ID, "Samples")
	requireDomainError(t, err, http.StatusBadRequest, "Tab name already exists in this department")

	renamed, err := svc.RenameTab(ctx, scientist, results.ID, "Results")
	require.NoError(t, err, "renaming to its own name is allowed")
	require.Equal(t, "Results", renamed.Name)

	renamed, err = svc.RenameTab(ctx, scientist, results.ID, "Outcomes")
	require.NoError(t, err)
	stored, err := tabs.GetByID(ctx, results.ID)
	require.NoError(t, err)
	require.Equal(t, "Outcomes", stored.Name)

	_, err = svc.RenameTab(ctx, scientist, results.ID, " ")
	requireDomainError(t, err, http.StatusBadRequest, "Tab name is required")

	_, err = svc.DeleteTab(ctx, actor(domain.RoleStaff), samples.ID)
	requireDomainError(t, err, http.StatusForbidden, "Permission denied")

	deleted, err := svc.DeleteTab(ctx, scientist, samples.ID)
	require.NoError(t, err)
	require.Equal(t, "Samples", deleted.Name)

	_, err = svc.DeleteTab(ctx, scientist, samples.ID)
	requireDomainError(t, err, http.StatusNotFound, "Tab not found")

	depts, err := svc.ListDepartments(ctx, actor(domain.RoleStaff))
	require.NoError(t, err)
	require.Len(t, depts, 1)
	require.Len(t, depts[0].Tabs, 1)

	tab, parent, err := svc.GetTab(ctx, actor(domain.RoleStaff), results.ID)
	require.NoError(t, err)
	require.Equal(t, "Outcomes", tab.Name)
	require.Equal(t, "Chemistry", parent.Name)

	require.Equal(t, []events.EventType{
		events.EventDepartmentCreated,
		events.EventTabCreated,
		events.EventTabCreated,
		events.EventTabRenamed,
		events.EventTabRenamed,
		events.EventTabDeleted,
	}, rec.types())
}
