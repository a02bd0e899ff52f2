package sync

import (
	"context"
	"fmt"

	"github.com/marcus/wfsync/internal/airtable"
	"github.com/marcus/wfsync/internal/models"
	"github.com/marcus/wfsync/internal/webflow"
)

// testConfig builds a sync config with the five bookkeeping fields and one
// plain text content field, with matching cached schemas on both sides.
func testConfig() *models.SyncConfig {
	return &models.SyncConfig{
		ID:   "sync-1",
		Name: "articles",
		Fields: []models.FieldMapping{
			{
				AirtableID: "fldTitle", AirtableName: "Title", AirtableType: "singleLineText",
				WebflowID: "wfName", WebflowSlug: "name", WebflowName: "Name", WebflowType: "PlainText",
				Special: models.SpecialName,
			},
			{
				AirtableID: "fldSlug", AirtableName: "Slug", AirtableType: "singleLineText",
				WebflowID: "wfSlug", WebflowSlug: "slug", WebflowName: "Slug", WebflowType: "PlainText",
				Special: models.SpecialSlug,
			},
			{
				AirtableID: "fldState", AirtableName: "Sync status", AirtableType: "singleSelect",
				Special: models.SpecialState,
			},
			{
				AirtableID: "fldItem", AirtableName: "Webflow ID", AirtableType: "singleLineText",
				Special: models.SpecialItemID,
			},
			{
				AirtableID: "fldPub", AirtableName: "Last published", AirtableType: "singleLineText",
				Special: models.SpecialLastPublished,
			},
			{
				AirtableID: "fldSummary", AirtableName: "Summary", AirtableType: "multilineText",
				WebflowID: "wfSummary", WebflowSlug: "summary", WebflowName: "Summary", WebflowType: "PlainText",
			},
		},
		Airtable: models.AirtableConfig{
			Base:  models.Named{ID: "app1", Name: "Content"},
			Table: models.Named{ID: "tbl1", Name: "Articles"},
			View:  models.Named{ID: "viw1", Name: "All"},
		},
		Webflow: models.WebflowConfig{
			Site:       models.Named{ID: "site1", Name: "Blog"},
			Collection: models.Named{ID: "col1", Name: "Articles"},
		},
	}
}

// testTableSchema mirrors testConfig's Airtable side.
func testTableSchema() *airtable.TableSchema {
	return &airtable.TableSchema{
		ID:   "tbl1",
		Name: "Articles",
		Fields: []airtable.Field{
			{ID: "fldTitle", Name: "Title", Type: "singleLineText"},
			{ID: "fldSlug", Name: "Slug", Type: "singleLineText"},
			{ID: "fldState", Name: "Sync status", Type: "singleSelect"},
			{ID: "fldItem", Name: "Webflow ID", Type: "singleLineText"},
			{ID: "fldPub", Name: "Last published", Type: "singleLineText"},
			{ID: "fldSummary", Name: "Summary", Type: "multilineText"},
		},
		Views: []airtable.View{{ID: "viw1", Name: "All"}},
	}
}

// testCollectionSchema mirrors testConfig's Webflow side.
func testCollectionSchema() *webflow.CollectionSchema {
	return &webflow.CollectionSchema{
		ID:          "col1",
		DisplayName: "Articles",
		Fields: []webflow.Field{
			{ID: "wfName", DisplayName: "Name", Slug: "name", Type: "PlainText"},
			{ID: "wfSlug", DisplayName: "Slug", Slug: "slug", Type: "PlainText"},
			{ID: "wfSummary", DisplayName: "Summary", Slug: "summary", Type: "PlainText"},
		},
	}
}

type fakeSource struct {
	records []airtable.Record
	// linked holds records fetchable one at a time, keyed tableID/recordID.
	linked map[string]airtable.Record
	schema *airtable.TableSchema

	// updates records every UpdateRecord call, keyed by record id.
	updates map[string][]map[string]any

	recordCalls int
	recordsErr  error
	updateErr   error
}

func newFakeSource(records ...airtable.Record) *fakeSource {
	return &fakeSource{
		records: records,
		linked:  make(map[string]airtable.Record),
		schema:  testTableSchema(),
		updates: make(map[string][]map[string]any),
	}
}

func (s *fakeSource) Records(context.Context) ([]airtable.Record, error) {
	return s.records, s.recordsErr
}

func (s *fakeSource) Record(_ context.Context, tableID, recordID string) (*airtable.Record, error) {
	s.recordCalls++
	rec, ok := s.linked[tableID+"/"+recordID]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", recordID, airtable.ErrNotFound)
	}
	return &rec, nil
}

func (s *fakeSource) Schema(context.Context) (*airtable.TableSchema, error) {
	return s.schema, nil
}

func (s *fakeSource) UpdateRecord(_ context.Context, recordID string, fields map[string]any) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates[recordID] = append(s.updates[recordID], fields)
	return nil
}

// lastUpdate returns the most recent patch written to a record, or nil.
func (s *fakeSource) lastUpdate(recordID string) map[string]any {
	patches := s.updates[recordID]
	if len(patches) == 0 {
		return nil
	}
	return patches[len(patches)-1]
}

type fakeDest struct {
	items  []webflow.Item
	schema *webflow.CollectionSchema

	created []*webflow.ItemPayload
	updated map[string]*webflow.ItemPayload
	deleted []string

	publishedBatches [][]string
	publishResult    *webflow.PublishResult
	publishErr       error
	sitePublishes    int
	sitePublishErr   error

	createErr error
	deleteErr map[string]error

	nextID int
}

func newFakeDest(items ...webflow.Item) *fakeDest {
	return &fakeDest{
		items:     items,
		schema:    testCollectionSchema(),
		updated:   make(map[string]*webflow.ItemPayload),
		deleteErr: make(map[string]error),
	}
}

func (d *fakeDest) Items(context.Context) ([]webflow.Item, error) {
	return d.items, nil
}

func (d *fakeDest) Schema(context.Context) (*webflow.CollectionSchema, error) {
	return d.schema, nil
}

func (d *fakeDest) CreateItem(_ context.Context, payload *webflow.ItemPayload) (*webflow.Item, error) {
	if d.createErr != nil {
		return nil, d.createErr
	}
	d.nextID++
	d.created = append(d.created, payload)
	slug := payload.Slug
	if slug == "" {
		slug = fmt.Sprintf("generated-%d", d.nextID)
	}
	return &webflow.Item{
		ID:        fmt.Sprintf("item-new-%d", d.nextID),
		FieldData: webflow.FieldData{"name": payload.Name, "slug": slug},
	}, nil
}

func (d *fakeDest) UpdateItem(_ context.Context, itemID string, payload *webflow.ItemPayload) (*webflow.Item, error) {
	d.updated[itemID] = payload
	return &webflow.Item{
		ID:        itemID,
		FieldData: webflow.FieldData{"name": payload.Name, "slug": payload.Slug},
	}, nil
}

func (d *fakeDest) DeleteItem(_ context.Context, itemID string) error {
	if err := d.deleteErr[itemID]; err != nil {
		return err
	}
	d.deleted = append(d.deleted, itemID)
	return nil
}

func (d *fakeDest) PublishItems(_ context.Context, itemIDs []string) (*webflow.PublishResult, error) {
	if d.publishErr != nil {
		return nil, d.publishErr
	}
	d.publishedBatches = append(d.publishedBatches, itemIDs)
	if d.publishResult != nil {
		return d.publishResult, nil
	}
	return &webflow.PublishResult{PublishedItemIDs: itemIDs}, nil
}

func (d *fakeDest) PublishSite(context.Context, bool) error {
	if d.sitePublishErr != nil {
		return d.sitePublishErr
	}
	d.sitePublishes++
	return nil
}

type fakeRegistry struct {
	syncs []*models.SyncConfig
}

func (r *fakeRegistry) FindByCollection(collectionID string) *models.SyncConfig {
	for _, s := range r.syncs {
		if s.Webflow.Collection.ID == collectionID {
			return s
		}
	}
	return nil
}

type recordingReporter struct {
	stages   []string
	warnings []string
}

func (r *recordingReporter) Stagef(format string, args ...any) {
	r.stages = append(r.stages, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) Warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func record(id string, fields airtable.Fields) airtable.Record {
	return airtable.Record{ID: id, Fields: fields}
}

func item(id, slug string) webflow.Item {
	return webflow.Item{ID: id, FieldData: webflow.FieldData{"slug": slug}}
}
