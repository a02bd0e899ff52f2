package sync

import "github.com/marcus/wfsync/internal/models"

// compatibility maps a Webflow field type to the Airtable field types
// allowed to feed it. Consulted at setup time to restrict selectable
// candidates and at drift-check time to decide whether a type change is
// tolerable.
var compatibility = map[string][]string{
	"PlainText": {
		"singleLineText", "multilineText", "url", "email", "phoneNumber",
		"number", "currency", "percent", "autoNumber", "rating",
		"formula", "rollup", "lookup", "singleSelect", "multipleSelect",
	},
	"RichText":       {"richText", "formula"},
	"Image":          {"multipleAttachments"},
	"MultiImage":     {"multipleAttachments"},
	"VideoLink":      {"singleLineText", "url", "formula"},
	"Link":           {"singleLineText", "url", "formula"},
	"Email":          {"singleLineText", "email", "formula"},
	"Phone":          {"singleLineText", "phoneNumber", "formula"},
	"Number":         {"singleLineText", "number", "currency", "percent", "autoNumber", "rating", "formula", "rollup"},
	"DateTime":       {"singleLineText", "dateTime", "formula"},
	"Switch":         {"singleLineText", "checkbox", "formula"},
	"Color":          {"singleLineText", "formula"},
	"Option":         {"singleLineText", "singleSelect", "formula"},
	"File":           {"multipleAttachments"},
	"Reference":      {"multipleRecordLinks"},
	"MultiReference": {"multipleRecordLinks"},
}

// TypeCompatible reports whether an Airtable field type may feed the given
// Webflow field type.
func TypeCompatible(webflowType, airtableType string) bool {
	for _, t := range compatibility[webflowType] {
		if t == airtableType {
			return true
		}
	}
	return false
}

// CompatibleSourceFields filters Airtable fields down to those whose type
// may feed the given Webflow field type.
func CompatibleSourceFields(webflowType string, fields []models.FieldDescriptor) []models.FieldDescriptor {
	var out []models.FieldDescriptor
	for _, f := range fields {
		if TypeCompatible(webflowType, f.Type) {
			out = append(out, f)
		}
	}
	return out
}
