package portalui

import "encoding/json"

// Border tints applied to JSON text fields on blur.
const (
	ValidTint   = "#28a745"
	InvalidTint = "#dc3545"

	borderColor = "border-color"
)

// ValidJSON reports whether text parses as a JSON document.
func ValidJSON(text string) bool {
	return json.Valid([]byte(text))
}

// WatchJSON tints the textarea with the given id on every blur. It returns
// false when no such element exists.
func WatchJSON(doc *Document, id string) bool {
	field := doc.ElementByID(id)
	if field == nil {
		return false
	}
	watchJSONField(field)
	return true
}

func watchJSONField(field *Element) {
	field.AddEventListener(EventBlur, func(ev Event) {
		if ValidJSON(ev.Target.Value()) {
			ev.Target.SetStyle(borderColor, ValidTint)
			return
		}
		ev.Target.SetStyle(borderColor, InvalidTint)
	})
}

// Tint returns the border tint currently shown on a field, empty before the
// first blur.
func Tint(field *Element) string {
	return field.Style(borderColor)
}
