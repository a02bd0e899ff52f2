package sync

import (
	"context"

	"github.com/marcus/wfsync/internal/airtable"
	"github.com/marcus/wfsync/internal/models"
	"github.com/marcus/wfsync/internal/webflow"
)

// SourceAPI is the capability bundle the engine needs from Airtable.
type SourceAPI interface {
	Records(ctx context.Context) ([]airtable.Record, error)
	// Record fetches a single record; tableID overrides the configured
	// table when resolving reference fields, "" means the configured table.
	Record(ctx context.Context, tableID, recordID string) (*airtable.Record, error)
	Schema(ctx context.Context) (*airtable.TableSchema, error)
	UpdateRecord(ctx context.Context, recordID string, fields map[string]any) error
}

// DestinationAPI is the capability bundle the engine needs from Webflow.
type DestinationAPI interface {
	Items(ctx context.Context) ([]webflow.Item, error)
	Schema(ctx context.Context) (*webflow.CollectionSchema, error)
	CreateItem(ctx context.Context, payload *webflow.ItemPayload) (*webflow.Item, error)
	UpdateItem(ctx context.Context, itemID string, payload *webflow.ItemPayload) (*webflow.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
	PublishItems(ctx context.Context, itemIDs []string) (*webflow.PublishResult, error)
	PublishSite(ctx context.Context, includeSubdomain bool) error
}

// Registry resolves which sync owns a Webflow collection. Reference fields
// reach through it to read the cross-reference id off records of a sibling
// sync.
type Registry interface {
	FindByCollection(collectionID string) *models.SyncConfig
}

// Reporter receives progress and warnings during a run.
type Reporter interface {
	Stagef(format string, args ...any)
	Warnf(format string, args ...any)
}

// nopReporter discards all output.
type nopReporter struct{}

func (nopReporter) Stagef(string, ...any) {}
func (nopReporter) Warnf(string, ...any)  {}

// Record is one source record flowing through a run, carrying the transient
// state the stages attach to it.
type Record struct {
	airtable.Record

	// ItemID is the destination id assigned by a create this run.
	ItemID string
	// Error is the classification failure reason, set only on members of
	// the WithErrors bucket.
	Error string
}

// DeleteTarget is one destination item queued for deletion. RecordID is
// empty for destination-side orphans that have no source record.
type DeleteTarget struct {
	RecordID string
	ItemID   string
}

// Buckets are the disjoint partitions of one run's records. ToPublish
// accumulates across the create and update stages and is consumed once by
// the publish stage. No bucket outlives the run.
type Buckets struct {
	ToCreate   []*Record
	ToUpdate   []*Record
	ToDelete   []DeleteTarget
	WithErrors []*Record
	ToPublish  []*Record

	// used holds every destination id claimed by a classified source
	// record; it is the single source of truth for what not to delete.
	used map[string]struct{}
}

// Used reports whether a destination id is protected from deletion.
func (b *Buckets) Used(itemID string) bool {
	_, ok := b.used[itemID]
	return ok
}
