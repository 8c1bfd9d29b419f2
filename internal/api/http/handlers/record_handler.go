package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/data-portal/internal/api/dto"
	"github.com/spec-kit/data-portal/internal/api/http/views"
	"github.com/spec-kit/data-portal/internal/service"
)

// RecordHandler serves tab grids, record forms and the records API.
type RecordHandler struct {
	records *service.RecordService
	pages   *Pages
}

// NewRecordHandler constructs handler.
func NewRecordHandler(records *service.RecordService, pages *Pages) *RecordHandler {
	return &RecordHandler{records: records, pages: pages}
}

// ViewTab handles GET /tab/:tabId/.
func (h *RecordHandler) ViewTab(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	grid, err := h.records.Grid(c.UserContext(), user, c.Params("tabId"))
	if err != nil {
		return err
	}
	page := h.pages.Page(c, grid.Tab.Name)
	page.Data = grid
	return h.pages.Render(c, fiber.StatusOK, "tab", page)
}

// AddRecordPage handles GET /tab/:tabId/add-record/.
func (h *RecordHandler) AddRecordPage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	tab, columns, err := h.records.FormColumns(c.UserContext(), user, c.Params("tabId"))
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		columns = []string{"Field 1", "Field 2"}
	}
	page := h.pages.Page(c, "Add record")
	page.Data = views.AddRecordData{Tab: tab, Columns: columns}
	return h.pages.Render(c, fiber.StatusOK, "add_record", page)
}

// AddRecord handles POST /tab/:tabId/add-record/.
func (h *RecordHandler) AddRecord(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	tab, columns, err := h.records.FormColumns(c.UserContext(), user, c.Params("tabId"))
	if err != nil {
		return err
	}

	form := map[string]string{}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		form[string(key)] = string(value)
	})
	data := service.FormData(columns, form)
	if len(data) == 0 {
		page := h.pages.Page(c, "Add record")
		page.Error = "Please fill in at least one field"
		page.Data = views.AddRecordData{Tab: tab, Columns: columns}
		return h.pages.Render(c, fiber.StatusOK, "add_record", page)
	}
	if _, err := h.records.Create(c.UserContext(), user, tab.ID, data); err != nil {
		return err
	}
	return c.Redirect("/tab/"+tab.ID+"/", fiber.StatusFound)
}

// EditRecordPage handles GET /record/:recordId/edit/.
func (h *RecordHandler) EditRecordPage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	record, tab, err := h.records.Get(c.UserContext(), user, c.Params("recordId"))
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(record.Data, "", "  ")
	if err != nil {
		return err
	}
	page := h.pages.Page(c, "Edit record")
	page.Data = views.RecordEditData{Tab: tab, RecordID: record.ID, JSON: string(raw)}
	return h.pages.Render(c, fiber.StatusOK, "record_edit", page)
}

// EditRecord handles POST /record/:recordId/edit/. The textarea replaces the
// whole record.
func (h *RecordHandler) EditRecord(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	record, tab, err := h.records.Get(c.UserContext(), user, c.Params("recordId"))
	if err != nil {
		return err
	}
	raw := c.FormValue("data", "{}")
	data, err := service.DecodeObject([]byte(raw))
	if err != nil {
		page := h.pages.Page(c, "Edit record")
		page.Error = "Invalid JSON format"
		page.Data = views.RecordEditData{Tab: tab, RecordID: record.ID, JSON: raw}
		return h.pages.Render(c, fiber.StatusBadRequest, "record_edit", page)
	}
	if _, err := h.records.Replace(c.UserContext(), user, record.ID, data); err != nil {
		return err
	}
	return c.Redirect("/tab/"+tab.ID+"/", fiber.StatusFound)
}

// DeleteRecord handles POST /record/:recordId/delete/.
func (h *RecordHandler) DeleteRecord(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if _, err := h.records.Delete(c.UserContext(), user, c.Params("recordId")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Record deleted successfully"})
}

// UpdateCell handles POST /record/:recordId/update-cell/.
func (h *RecordHandler) UpdateCell(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CellUpdateRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if _, err := h.records.UpdateCell(c.UserContext(), user, c.Params("recordId"), req.Column, req.Value); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Cell updated successfully", "value": req.Value})
}

// ListRecords handles GET /api/tab/:tabId/records/.
func (h *RecordHandler) ListRecords(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	grid, err := h.records.Grid(c.UserContext(), user, c.Params("tabId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.RecordsResponse{
		Data:      grid.Rows,
		Columns:   grid.Columns,
		CanEdit:   grid.CanEdit,
		CanDelete: grid.CanDelete,
	})
}

// CreateRecord handles POST /api/tab/:tabId/records/create/.
func (h *RecordHandler) CreateRecord(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	data, err := service.DecodeObject(c.Body())
	if err != nil {
		return err
	}
	record, err := h.records.Create(c.UserContext(), user, c.Params("tabId"), data)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RecordResponse{Success: true, ID: record.ID, Data: record.Data})
}

// UpdateRecord handles PATCH|PUT /api/record/:recordId/. Both merge.
func (h *RecordHandler) UpdateRecord(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	patch, err := service.DecodeObject(c.Body())
	if err != nil {
		return err
	}
	record, err := h.records.Merge(c.UserContext(), user, c.Params("recordId"), patch)
	if err != nil {
		return err
	}
	return c.JSON(dto.RecordResponse{Success: true, ID: record.ID, Data: record.Data})
}

// APIDeleteRecord handles DELETE /api/record/:recordId/delete/.
func (h *RecordHandler) APIDeleteRecord(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	record, err := h.records.Delete(c.UserContext(), user, c.Params("recordId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "id": record.ID, "message": "Record deleted successfully"})
}
