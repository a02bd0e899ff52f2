package sync

import (
	"testing"

	"github.com/marcus/wfsync/internal/models"
)

func TestTypeCompatible(t *testing.T) {
	cases := []struct {
		webflow  string
		airtable string
		want     bool
	}{
		{"PlainText", "singleLineText", true},
		{"PlainText", "formula", true},
		{"PlainText", "multipleAttachments", false},
		{"RichText", "richText", true},
		{"RichText", "multilineText", false},
		{"Image", "multipleAttachments", true},
		{"MultiReference", "multipleRecordLinks", true},
		{"Reference", "singleLineText", false},
		{"Switch", "checkbox", true},
		{"Unknown", "singleLineText", false},
	}
	for _, c := range cases {
		if got := TypeCompatible(c.webflow, c.airtable); got != c.want {
			t.Errorf("TypeCompatible(%q, %q) = %v, want %v", c.webflow, c.airtable, got, c.want)
		}
	}
}

func TestCompatibleSourceFields(t *testing.T) {
	fields := []models.FieldDescriptor{
		{ID: "f1", Name: "Title", Type: "singleLineText"},
		{ID: "f2", Name: "Body", Type: "richText"},
		{ID: "f3", Name: "Photos", Type: "multipleAttachments"},
	}

	got := CompatibleSourceFields("RichText", fields)
	if len(got) != 1 || got[0].ID != "f2" {
		t.Fatalf("expected only the richText field, got %+v", got)
	}

	if got := CompatibleSourceFields("Image", fields); len(got) != 1 || got[0].ID != "f3" {
		t.Fatalf("expected only the attachment field, got %+v", got)
	}
}
