package portalui

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modalsPage = `<!doctype html>
<html><body>
  <button id="openDept" data-action="show-modal" data-modal="createDepartmentModal">New</button>
  <div id="createDepartmentModal" class="modal">
    <div id="deptContent" class="modal-content">
      <input id="departmentName" value="Preset">
      <textarea id="departmentDescription">About</textarea>
      <button id="closeDept" data-action="hide-modal" data-modal="createDepartmentModal">Close</button>
    </div>
  </div>
  <div id="createTabModal" class="modal"></div>
</body></html>`

func parseTestDocument(t *testing.T, html string) *Document {
	t.Helper()
	doc, err := ParseDocument("/dashboard/", strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseDocument_Values(t *testing.T) {
	doc := parseTestDocument(t, modalsPage)

	require.Equal(t, "/dashboard/", doc.Path())
	require.Equal(t, "Preset", doc.ElementByID("departmentName").Value())
	require.Equal(t, "About", doc.ElementByID("departmentDescription").Value())
	require.Equal(t, "textarea", doc.ElementByID("departmentDescription").Tag())
	require.Equal(t, "createDepartmentModal", doc.ElementByID("openDept").Data("modal"))
	require.Nil(t, doc.ElementByID("missing"))
}

func TestModal_ShowThenHideRestoresState(t *testing.T) {
	doc := parseTestDocument(t, modalsPage)
	modal := doc.ElementByID(ModalCreateDepartment)

	require.False(t, modal.HasClass("active"))
	doc.ShowModal(ModalCreateDepartment)
	require.True(t, modal.HasClass("active"))
	require.True(t, modal.HasClass("modal"))
	doc.HideModal(ModalCreateDepartment)
	require.False(t, modal.HasClass("active"))
	require.True(t, modal.HasClass("modal"))
}

func TestModal_UnknownIDIsNoop(t *testing.T) {
	doc := parseTestDocument(t, modalsPage)

	require.NotPanics(t, func() {
		doc.HideModal("nope")
		doc.ShowModal("nope")
	})
	require.Empty(t, doc.ActiveModals())
}

func TestBind_BackdropClickClosesModal(t *testing.T) {
	doc := parseTestDocument(t, modalsPage)
	ui := newFakeUI(doc)
	c := NewController(nil, ui, Session{}, nil)
	c.Bind(context.Background(), doc)

	doc.ShowModal(ModalCreateDepartment)
	doc.ShowModal(ModalCreateTab)

	doc.Click(doc.ElementByID("deptContent"))
	require.Len(t, doc.ActiveModals(), 2, "clicks inside the content keep the modal open")

	doc.Click(doc.ElementByID(ModalCreateDepartment))
	active := doc.ActiveModals()
	require.Len(t, active, 1)
	require.Equal(t, ModalCreateTab, active[0].ID())
}

func TestBind_ModalButtons(t *testing.T) {
	doc := parseTestDocument(t, modalsPage)
	ui := newFakeUI(doc)
	c := NewController(nil, ui, Session{}, nil)
	c.Bind(context.Background(), doc)

	doc.Click(doc.ElementByID("openDept"))
	require.True(t, doc.ElementByID(ModalCreateDepartment).HasClass("active"))

	doc.Click(doc.ElementByID("closeDept"))
	require.False(t, doc.ElementByID(ModalCreateDepartment).HasClass("active"))
}
