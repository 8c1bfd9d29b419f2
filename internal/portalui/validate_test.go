package portalui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const recordPage = `<html><body>
  <form>
    <textarea name="data" id="recordData"></textarea>
    <textarea name="data"></textarea>
    <textarea id="extraJSON"></textarea>
    <textarea name="notes" id="notes"></textarea>
  </form>
</body></html>`

func TestValidJSON(t *testing.T) {
	require.True(t, ValidJSON(`{"a":1}`))
	require.True(t, ValidJSON(` [1, 2, "x"] `))
	require.True(t, ValidJSON(`null`))
	require.False(t, ValidJSON(`{a:1}`))
	require.False(t, ValidJSON(``))
	require.False(t, ValidJSON(`{"a":1,}`))
}

func TestBind_TintsDataFieldsOnBlur(t *testing.T) {
	doc := parseTestDocument(t, recordPage)
	NewController(nil, newFakeUI(doc), Session{}, nil).Bind(context.Background(), doc)

	fields := doc.DataFields()
	require.Len(t, fields, 2)
	field := fields[0]
	require.Empty(t, Tint(field), "no tint before the first blur")

	field.SetValue(`{"a":1}`)
	doc.Blur(field)
	require.Equal(t, ValidTint, Tint(field))

	field.SetValue(`{a:1}`)
	doc.Blur(field)
	require.Equal(t, InvalidTint, Tint(field))
	require.Equal(t, `{a:1}`, field.Value(), "text is never normalised")

	field.SetValue(`{"a":1}`)
	doc.Blur(field)
	require.Equal(t, ValidTint, Tint(field))

	notes := doc.ElementByID("notes")
	notes.SetValue(`{a:1}`)
	doc.Blur(notes)
	require.Empty(t, Tint(notes))
}

func TestWatchJSON_ByID(t *testing.T) {
	doc := parseTestDocument(t, recordPage)

	require.False(t, WatchJSON(doc, "missing"))
	require.True(t, WatchJSON(doc, "extraJSON"))

	extra := doc.ElementByID("extraJSON")
	extra.SetValue(`[`)
	doc.Blur(extra)
	require.Equal(t, InvalidTint, Tint(extra))
}
