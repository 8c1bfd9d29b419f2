package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/data-portal/internal/domain"
	"github.com/spec-kit/data-portal/internal/service"
	apperrors "github.com/spec-kit/data-portal/pkg/util"
)

// ImportHandler serves the spreadsheet import page.
type ImportHandler struct {
	portal  *service.PortalService
	imports *service.ImportService
	pages   *Pages
}

// NewImportHandler constructs handler.
func NewImportHandler(portal *service.PortalService, imports *service.ImportService, pages *Pages) *ImportHandler {
	return &ImportHandler{portal: portal, imports: imports, pages: pages}
}

func (h *ImportHandler) tab(c *fiber.Ctx, user *domain.User) (*domain.Tab, error) {
	if !user.HasPermission(domain.ActionAdd) {
		return nil, apperrors.NewForbidden("You do not have permission to add records to this tab.")
	}
	tab, _, err := h.portal.GetTab(c.UserContext(), user, c.Params("tabId"))
	return tab, err
}

// Page handles GET /tab/:tabId/import-excel/.
func (h *ImportHandler) Page(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	tab, err := h.tab(c, user)
	if err != nil {
		return err
	}
	page := h.pages.Page(c, "Import Excel")
	page.Data = tab
	return h.pages.Render(c, fiber.StatusOK, "import_excel", page)
}

// Import handles POST /tab/:tabId/import-excel/.
func (h *ImportHandler) Import(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	tab, err := h.tab(c, user)
	if err != nil {
		return err
	}
	page := h.pages.Page(c, "Import Excel")
	page.Data = tab

	header, err := c.FormFile("file")
	if err != nil {
		page.Error = "No file selected"
		return h.pages.Render(c, fiber.StatusOK, "import_excel", page)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	count, err := h.imports.Import(c.UserContext(), user, tab.ID, header.Filename, file)
	if err != nil {
		if isValidation(err) {
			page.Error = apperrors.ToDomainError(err).Message
			return h.pages.Render(c, fiber.StatusOK, "import_excel", page)
		}
		return err
	}
	page.Flash = "Successfully imported " + strconv.Itoa(count) + " records"
	return h.pages.Render(c, fiber.StatusOK, "import_excel", page)
}
