package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/data-portal/internal/api/dto"
	"github.com/spec-kit/data-portal/internal/api/http/views"
	"github.com/spec-kit/data-portal/internal/service"
)

// PortalHandler serves the dashboard and the department/tab mutations.
type PortalHandler struct {
	portal *service.PortalService
	pages  *Pages
}

// NewPortalHandler constructs handler.
func NewPortalHandler(portal *service.PortalService, pages *Pages) *PortalHandler {
	return &PortalHandler{portal: portal, pages: pages}
}

// Dashboard handles GET /dashboard/.
func (h *PortalHandler) Dashboard(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	departments, err := h.portal.ListDepartments(c.UserContext(), user)
	if err != nil {
		return err
	}
	page := h.pages.Page(c, "Dashboard")
	page.Data = views.DashboardData{Departments: departments, CanManageTabs: user.CanManageTabs()}
	return h.pages.Render(c, fiber.StatusOK, "dashboard", page)
}

// CreateDepartment handles POST /create-department/.
func (h *PortalHandler) CreateDepartment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.portal.RequireManager(user); err != nil {
		return err
	}
	var req dto.NameRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	dept, err := h.portal.CreateDepartment(c.UserContext(), user, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "department": dto.NewDepartmentResponse(dept)})
}

// CreateTab handles POST /create-tab/:departmentId/. A missing department is
// reported before the body is read.
func (h *PortalHandler) CreateTab(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if _, err := h.portal.ManagedDepartment(c.UserContext(), user, c.Params("departmentId")); err != nil {
		return err
	}
	var req dto.NameRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	tab, err := h.portal.CreateTab(c.UserContext(), user, c.Params("departmentId"), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "tab": dto.NewTabResponse(tab)})
}

// RenameTab handles POST /rename-tab/:tabId/.
func (h *PortalHandler) RenameTab(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if _, err := h.portal.ManagedTab(c.UserContext(), user, c.Params("tabId")); err != nil {
		return err
	}
	var req dto.NameRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	tab, err := h.portal.RenameTab(c.UserContext(), user, c.Params("tabId"), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "tab": dto.TabResponse{ID: tab.ID, Name: tab.Name}})
}

// DeleteTab handles POST|DELETE /delete-tab/:tabId/.
func (h *PortalHandler) DeleteTab(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	tab, err := h.portal.DeleteTab(c.UserContext(), user, c.Params("tabId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": `Tab "` + tab.Name + `" deleted successfully`})
}
