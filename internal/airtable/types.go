package airtable

import "github.com/marcus/wfsync/internal/models"

// Record is one row from an Airtable table.
type Record struct {
	ID          string `json:"id"`
	CreatedTime string `json:"createdTime,omitempty"`
	Fields      Fields `json:"fields"`
}

// Attachment is one entry of a multipleAttachments field value.
type Attachment struct {
	ID       string `json:"id,omitempty"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// Fields is the raw field-name → value map of a record. Values arrive as
// decoded JSON: scalars, attachment object lists, or linked-record id lists.
// The helpers below resolve the variant shapes once, at the call site,
// instead of re-inspecting interface values throughout the engine.
type Fields map[string]any

// Has reports whether the field is present with a non-nil value.
func (f Fields) Has(name string) bool {
	v, ok := f[name]
	return ok && v != nil
}

// String returns the field value as a string, or "" when absent or not a
// string.
func (f Fields) String(name string) string {
	if s, ok := f[name].(string); ok {
		return s
	}
	return ""
}

// Attachments returns the field value as an attachment list. Absent or
// differently shaped values yield nil.
func (f Fields) Attachments(name string) []Attachment {
	raw, ok := f[name].([]any)
	if !ok {
		return nil
	}
	var out []Attachment
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		a := Attachment{}
		if s, ok := m["id"].(string); ok {
			a.ID = s
		}
		if s, ok := m["url"].(string); ok {
			a.URL = s
		}
		if s, ok := m["filename"].(string); ok {
			a.Filename = s
		}
		out = append(out, a)
	}
	return out
}

// LinkedIDs returns the field value as a list of linked record ids. A
// single-link field is an array of one id on the wire, so this covers both
// Reference and MultiReference sources.
func (f Fields) LinkedIDs(name string) []string {
	raw, ok := f[name].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Field is one field of a table schema as returned by the metadata API.
type Field struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Type    string       `json:"type"`
	Options FieldOptions `json:"options,omitempty"`
}

// FieldOptions carries the schema options we consume.
type FieldOptions struct {
	LinkedTableID string `json:"linkedTableId,omitempty"`
	Choices       []struct {
		Name string `json:"name"`
	} `json:"choices,omitempty"`
}

// View is one view of a table.
type View struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// TableSchema is the metadata of one table.
type TableSchema struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
	Views  []View  `json:"views"`
}

// Field returns the schema field with the given id, or nil.
func (t *TableSchema) Field(id string) *Field {
	for i := range t.Fields {
		if t.Fields[i].ID == id {
			return &t.Fields[i]
		}
	}
	return nil
}

// Descriptors converts the table's fields into the platform-neutral shape
// cached in sync configs.
func (t *TableSchema) Descriptors() []models.FieldDescriptor {
	out := make([]models.FieldDescriptor, 0, len(t.Fields))
	for _, f := range t.Fields {
		d := models.FieldDescriptor{
			ID:   f.ID,
			Name: f.Name,
			Type: f.Type,
			Options: models.FieldOptions{
				LinkedTableID: f.Options.LinkedTableID,
			},
		}
		for _, c := range f.Options.Choices {
			d.Options.Choices = append(d.Options.Choices, c.Name)
		}
		out = append(out, d)
	}
	return out
}

// Base is one base visible to the API token.
type Base struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
