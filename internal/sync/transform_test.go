package sync

import (
	"context"
	"reflect"
	"testing"

	"github.com/marcus/wfsync/internal/airtable"
	"github.com/marcus/wfsync/internal/models"
	"github.com/marcus/wfsync/internal/webflow"
)

func TestTransformPlainFields(t *testing.T) {
	cfg := testConfig()
	src := newFakeSource()
	tr := NewTransformer(cfg, src, nil, nil)

	rec := &Record{Record: record("rec1", airtable.Fields{
		"Title":      "Hello",
		"Slug":       "hello",
		"Summary":    "A summary.",
		"Sync status": "Queued for sync",
	})}

	payload, err := tr.Build(context.Background(), rec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if payload.Name != "Hello" || payload.Slug != "hello" {
		t.Errorf("name/slug not mapped: %+v", payload)
	}
	if payload.Fields["summary"] != "A summary." {
		t.Errorf("summary not mapped, got %v", payload.Fields["summary"])
	}
	// Bookkeeping fields never reach the destination.
	for _, slug := range []string{"Sync status", "Webflow ID", "Last published"} {
		if _, ok := payload.Fields[slug]; ok {
			t.Errorf("bookkeeping field %q leaked into payload", slug)
		}
	}
}

func TestTransformAbsentValueClears(t *testing.T) {
	cfg := testConfig()
	tr := NewTransformer(cfg, newFakeSource(), nil, nil)

	rec := &Record{Record: record("rec1", airtable.Fields{"Title": "Hello"})}
	payload, err := tr.Build(context.Background(), rec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if v, ok := payload.Fields["summary"]; !ok || v != "" {
		t.Errorf("absent plain field must map to empty string, got %v (present=%v)", v, ok)
	}
}

func TestTransformRichText(t *testing.T) {
	cfg := testConfig()
	cfg.Fields = append(cfg.Fields, models.FieldMapping{
		AirtableID: "fldBody", AirtableName: "Body", AirtableType: "richText",
		WebflowID: "wfBody", WebflowSlug: "body", WebflowName: "Body", WebflowType: "RichText",
	})
	tr := NewTransformer(cfg, newFakeSource(), nil, nil)

	rec := &Record{Record: record("rec1", airtable.Fields{"Body": "**bold**"})}
	payload, err := tr.Build(context.Background(), rec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if payload.Fields["body"] != "<p><strong>bold</strong></p>" {
		t.Errorf("rich text not converted, got %v", payload.Fields["body"])
	}
}

func TestTransformImages(t *testing.T) {
	cfg := testConfig()
	cfg.Fields = append(cfg.Fields,
		models.FieldMapping{
			AirtableID: "fldPhoto", AirtableName: "Photo", AirtableType: "multipleAttachments",
			WebflowID: "wfPhoto", WebflowSlug: "photo", WebflowName: "Photo", WebflowType: "Image",
		},
		models.FieldMapping{
			AirtableID: "fldGallery", AirtableName: "Gallery", AirtableType: "multipleAttachments",
			WebflowID: "wfGallery", WebflowSlug: "gallery", WebflowName: "Gallery", WebflowType: "MultiImage",
		},
	)
	tr := NewTransformer(cfg, newFakeSource(), nil, nil)

	rec := &Record{Record: record("rec1", airtable.Fields{
		"Photo": []any{
			map[string]any{"id": "att1", "url": "https://files.example/a.png"},
			map[string]any{"id": "att2", "url": "https://files.example/b.png"},
		},
		"Gallery": []any{
			map[string]any{"id": "att3", "url": "https://files.example/c.png"},
		},
	})}

	payload, err := tr.Build(context.Background(), rec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := webflow.ImageRef{URL: "https://files.example/a.png"}
	if payload.Fields["photo"] != want {
		t.Errorf("single image must use the first attachment, got %v", payload.Fields["photo"])
	}
	gallery, ok := payload.Fields["gallery"].([]webflow.ImageRef)
	if !ok || len(gallery) != 1 || gallery[0].URL != "https://files.example/c.png" {
		t.Errorf("gallery not mapped, got %v", payload.Fields["gallery"])
	}
}

func TestTransformAbsentImageClears(t *testing.T) {
	cfg := testConfig()
	cfg.Fields = append(cfg.Fields, models.FieldMapping{
		AirtableID: "fldPhoto", AirtableName: "Photo", AirtableType: "multipleAttachments",
		WebflowID: "wfPhoto", WebflowSlug: "photo", WebflowName: "Photo", WebflowType: "Image",
	})
	tr := NewTransformer(cfg, newFakeSource(), nil, nil)

	rec := &Record{Record: record("rec1", airtable.Fields{})}
	payload, err := tr.Build(context.Background(), rec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !reflect.DeepEqual(payload.Fields["photo"], []any{}) {
		t.Errorf("absent image must map to an empty list, got %#v", payload.Fields["photo"])
	}
}

func referenceFixture() (*models.SyncConfig, *fakeSource, *fakeRegistry) {
	cfg := testConfig()
	cfg.Fields = append(cfg.Fields, models.FieldMapping{
		AirtableID: "fldTags", AirtableName: "Tags", AirtableType: "multipleRecordLinks",
		WebflowID: "wfTags", WebflowSlug: "tags", WebflowName: "Tags", WebflowType: "MultiReference",
		Validations: models.FieldValidations{CollectionID: "col2"},
		Options:     models.FieldOptions{LinkedTableID: "tbl2"},
	})

	sibling := &models.SyncConfig{
		ID:   "sync-2",
		Name: "tags",
		Fields: []models.FieldMapping{
			{AirtableID: "fldWF", AirtableName: "WF ID", AirtableType: "singleLineText", Special: models.SpecialItemID},
		},
		Webflow: models.WebflowConfig{Collection: models.Named{ID: "col2", Name: "Tags"}},
	}

	src := newFakeSource()
	src.linked["tbl2/recTagA"] = record("recTagA", airtable.Fields{"WF ID": "itemTagA"})
	src.linked["tbl2/recTagB"] = record("recTagB", airtable.Fields{})

	return cfg, src, &fakeRegistry{syncs: []*models.SyncConfig{sibling}}
}

func TestTransformReferences(t *testing.T) {
	cfg, src, registry := referenceFixture()
	tr := NewTransformer(cfg, src, registry, nil)

	rec := &Record{Record: record("rec1", airtable.Fields{
		"Tags": []any{"recTagA", "recTagB"},
	})}
	payload, err := tr.Build(context.Background(), rec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	// recTagB has no destination item yet and contributes nothing.
	if !reflect.DeepEqual(payload.Fields["tags"], []string{"itemTagA"}) {
		t.Errorf("references not resolved, got %#v", payload.Fields["tags"])
	}
}

func TestTransformReferenceCache(t *testing.T) {
	cfg, src, registry := referenceFixture()
	tr := NewTransformer(cfg, src, registry, nil)

	rec := &Record{Record: record("rec1", airtable.Fields{"Tags": []any{"recTagA"}})}
	for i := 0; i < 3; i++ {
		if _, err := tr.Build(context.Background(), rec); err != nil {
			t.Fatalf("Build failed: %v", err)
		}
	}
	if src.recordCalls != 1 {
		t.Errorf("expected 1 linked-record fetch across builds, got %d", src.recordCalls)
	}
}

func TestTransformReferenceWithoutSiblingSync(t *testing.T) {
	cfg, src, _ := referenceFixture()
	reporter := &recordingReporter{}
	tr := NewTransformer(cfg, src, &fakeRegistry{}, reporter)

	rec := &Record{Record: record("rec1", airtable.Fields{"Tags": []any{"recTagA"}})}
	payload, err := tr.Build(context.Background(), rec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got, ok := payload.Fields["tags"]; ok {
		t.Errorf("unresolvable reference field must be omitted from the payload, got %#v", got)
	}
	if len(reporter.warnings) != 1 {
		t.Errorf("expected a warning about the missing sync, got %v", reporter.warnings)
	}
}
