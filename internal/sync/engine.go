// Package sync implements the Airtable→Webflow reconciliation engine: record
// classification, field transformation, schema drift checking, and the staged
// run that applies creates, updates, publishes and deletes.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcus/wfsync/internal/airtable"
	"github.com/marcus/wfsync/internal/models"
	"github.com/marcus/wfsync/internal/webflow"
)

// validationErrorMarker appears in publish error strings when an item fails
// site-level validation, typically because the site was never published after
// a collection schema change.
const validationErrorMarker = "ValidationError"

// Report summarizes one completed run.
type Report struct {
	Created   int
	Updated   int
	Deleted   int
	Published int
	// Errors lists per-record classification failures; they do not stop the
	// run.
	Errors []string

	Elapsed time.Duration
}

// Engine drives one sync configuration through a full reconciliation run.
type Engine struct {
	cfg      *models.SyncConfig
	source   SourceAPI
	dest     DestinationAPI
	registry Registry
	reporter Reporter

	// saveConfig persists the sync config after the drift check refreshes
	// the cached schemas. Nil skips persistence.
	saveConfig func() error

	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry lets reference fields resolve against sibling syncs.
func WithRegistry(r Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithReporter routes stage progress and warnings to r.
func WithReporter(r Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithConfigSaver persists the config after schema refresh.
func WithConfigSaver(save func() error) Option {
	return func(e *Engine) { e.saveConfig = save }
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine for one sync.
func NewEngine(cfg *models.SyncConfig, source SourceAPI, dest DestinationAPI, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		source:   source,
		dest:     dest,
		reporter: nopReporter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one reconciliation: drift check, fetch, classify, create,
// update, publish, delete. Per-record classification failures are reported
// and skipped; any API failure during a mutation stage aborts the run so no
// further writes happen on bad state.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := e.now()
	report := &Report{}

	e.reporter.Stagef("checking schemas")
	if err := CheckSchema(ctx, e.cfg, e.source, e.dest); err != nil {
		return nil, err
	}
	if e.saveConfig != nil {
		if err := e.saveConfig(); err != nil {
			return nil, fmt.Errorf("save config: %w", err)
		}
	}

	e.reporter.Stagef("fetching records and items")
	var (
		records []airtable.Record
		items   []webflow.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = e.source.Records(gctx)
		if err != nil {
			return fmt.Errorf("fetch airtable records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = e.dest.Items(gctx)
		if err != nil {
			return fmt.Errorf("fetch webflow items: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	buckets, err := Classify(e.cfg, records, items)
	if err != nil {
		return nil, err
	}
	for _, rec := range buckets.WithErrors {
		msg := fmt.Sprintf("record %s: %s", rec.ID, rec.Error)
		report.Errors = append(report.Errors, msg)
		e.reporter.Warnf("%s", msg)
	}

	transformer := NewTransformer(e.cfg, e.source, e.registry, e.reporter)

	if len(buckets.ToCreate) > 0 {
		e.reporter.Stagef("creating %d items", len(buckets.ToCreate))
		if err := e.createItems(ctx, transformer, buckets, report); err != nil {
			return nil, err
		}
	}
	if len(buckets.ToUpdate) > 0 {
		e.reporter.Stagef("updating %d items", len(buckets.ToUpdate))
		if err := e.updateItems(ctx, transformer, buckets, report); err != nil {
			return nil, err
		}
	}
	if len(buckets.ToPublish) > 0 {
		e.reporter.Stagef("publishing %d items", len(buckets.ToPublish))
		if err := e.publishItems(ctx, buckets, report); err != nil {
			return nil, err
		}
	}
	// The delete policy gates the whole stage. Records still classify into
	// the delete bucket either way so counts stay honest, but no destination
	// item is removed unless the sync opted in.
	if e.cfg.DeleteRecords && len(buckets.ToDelete) > 0 {
		e.reporter.Stagef("deleting %d items", len(buckets.ToDelete))
		if err := e.deleteItems(ctx, buckets, report); err != nil {
			return nil, err
		}
	}

	report.Elapsed = e.now().Sub(start)
	return report, nil
}

func (e *Engine) createItems(ctx context.Context, transformer *Transformer, buckets *Buckets, report *Report) error {
	for _, rec := range buckets.ToCreate {
		payload, err := transformer.Build(ctx, rec)
		if err != nil {
			return fmt.Errorf("transform record %s: %w", rec.ID, err)
		}
		item, err := e.dest.CreateItem(ctx, payload)
		if err != nil {
			return fmt.Errorf("create item for record %s: %w", rec.ID, err)
		}
		slog.Debug("created item", "record", rec.ID, "item", item.ID)
		rec.ItemID = item.ID
		if err := e.writeBack(ctx, rec, item); err != nil {
			return err
		}
		buckets.ToPublish = append(buckets.ToPublish, rec)
		report.Created++
	}
	return nil
}

func (e *Engine) updateItems(ctx context.Context, transformer *Transformer, buckets *Buckets, report *Report) error {
	itemIDField := e.cfg.Special(models.SpecialItemID)
	for _, rec := range buckets.ToUpdate {
		payload, err := transformer.Build(ctx, rec)
		if err != nil {
			return fmt.Errorf("transform record %s: %w", rec.ID, err)
		}
		itemID := rec.Fields.String(itemIDField.AirtableName)
		item, err := e.dest.UpdateItem(ctx, itemID, payload)
		if err != nil {
			return fmt.Errorf("update item %s for record %s: %w", itemID, rec.ID, err)
		}
		slog.Debug("updated item", "record", rec.ID, "item", item.ID)
		rec.ItemID = item.ID
		if err := e.writeBack(ctx, rec, item); err != nil {
			return err
		}
		buckets.ToPublish = append(buckets.ToPublish, rec)
		report.Updated++
	}
	return nil
}

// writeBack mirrors destination-assigned values into the source record: the
// item id when new, the slug Webflow settled on when it differs, and the
// state flip from queued to staging so one-shot records do not sync twice.
func (e *Engine) writeBack(ctx context.Context, rec *Record, item *webflow.Item) error {
	fields := make(map[string]any)

	if f := e.cfg.Special(models.SpecialItemID); f != nil {
		if rec.Fields.String(f.AirtableName) != item.ID {
			fields[f.AirtableName] = item.ID
		}
	}
	if f := e.cfg.Special(models.SpecialSlug); f != nil {
		if slug := item.FieldData.Slug(); slug != "" && rec.Fields.String(f.AirtableName) != slug {
			fields[f.AirtableName] = slug
		}
	}
	if f := e.cfg.Special(models.SpecialState); f != nil {
		if Status(rec.Fields.String(f.AirtableName)) == StatusQueued {
			fields[f.AirtableName] = string(StatusStaging)
		}
	}

	if len(fields) == 0 {
		return nil
	}
	if err := e.source.UpdateRecord(ctx, rec.ID, fields); err != nil {
		return fmt.Errorf("write back record %s: %w", rec.ID, err)
	}
	return nil
}

func (e *Engine) publishItems(ctx context.Context, buckets *Buckets, report *Report) error {
	itemIDField := e.cfg.Special(models.SpecialItemID)

	// A record can surface the same destination item through both the
	// transient id and the stored field value; publish each id once.
	seen := make(map[string]struct{})
	var ids []string
	byItem := make(map[string][]*Record)
	for _, rec := range buckets.ToPublish {
		id := rec.ItemID
		if id == "" {
			id = rec.Fields.String(itemIDField.AirtableName)
		}
		if id == "" {
			continue
		}
		byItem[id] = append(byItem[id], rec)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}

	result, err := e.dest.PublishItems(ctx, ids)
	if err != nil {
		if errors.Is(err, webflow.ErrNotFound) {
			// A stale id in the batch fails the whole call. The created and
			// updated items are fine, they just stay unpublished this run.
			e.reporter.Warnf("publish failed, an item in the batch no longer exists: %v", err)
			return nil
		}
		return fmt.Errorf("publish items: %w", err)
	}

	if hasValidationError(result.Errors) {
		if e.cfg.AutoPublish {
			e.reporter.Warnf("item publish hit validation errors; republishing the whole site")
			if err := e.dest.PublishSite(ctx, e.cfg.PublishSubdomain); err != nil {
				if errors.Is(err, webflow.ErrRateLimited) {
					e.reporter.Warnf("site publish rate limited, try again in a minute: %v", err)
				} else {
					return fmt.Errorf("publish site: %w", err)
				}
			}
		} else {
			e.reporter.Warnf("item publish hit validation errors; publish the site from the Webflow designer or enable auto-publish")
		}
	}

	slog.Debug("published items", "requested", len(ids), "published", len(result.PublishedItemIDs), "errors", len(result.Errors))

	stamp := e.now().UTC().Format(time.RFC3339)
	lastPublished := e.cfg.Special(models.SpecialLastPublished)
	for _, id := range result.PublishedItemIDs {
		report.Published++
		if lastPublished == nil {
			continue
		}
		for _, rec := range byItem[id] {
			fields := map[string]any{lastPublished.AirtableName: stamp}
			if err := e.source.UpdateRecord(ctx, rec.ID, fields); err != nil {
				return fmt.Errorf("stamp publish time on record %s: %w", rec.ID, err)
			}
		}
	}
	return nil
}

func hasValidationError(errs []string) bool {
	for _, msg := range errs {
		if strings.Contains(msg, validationErrorMarker) {
			return true
		}
	}
	return false
}

func (e *Engine) deleteItems(ctx context.Context, buckets *Buckets, report *Report) error {
	itemIDField := e.cfg.Special(models.SpecialItemID)
	lastPublished := e.cfg.Special(models.SpecialLastPublished)

	for _, target := range buckets.ToDelete {
		if err := e.dest.DeleteItem(ctx, target.ItemID); err != nil {
			if errors.Is(err, webflow.ErrConflict) {
				// Another collection still references the item.
				e.reporter.Warnf("item %s is still referenced and cannot be deleted; skipping", target.ItemID)
				continue
			}
			return fmt.Errorf("delete item %s: %w", target.ItemID, err)
		}
		slog.Debug("deleted item", "item", target.ItemID, "record", target.RecordID)
		report.Deleted++

		if target.RecordID == "" {
			continue
		}
		fields := map[string]any{itemIDField.AirtableName: ""}
		if lastPublished != nil {
			fields[lastPublished.AirtableName] = nil
		}
		if err := e.source.UpdateRecord(ctx, target.RecordID, fields); err != nil {
			return fmt.Errorf("clear record %s after delete: %w", target.RecordID, err)
		}
	}
	return nil
}
