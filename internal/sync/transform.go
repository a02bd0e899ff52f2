package sync

import (
	"context"
	"fmt"

	"github.com/marcus/wfsync/internal/models"
	"github.com/marcus/wfsync/internal/webflow"
)

// refKey identifies one fetched sibling record in the per-run cache.
type refKey struct {
	tableID  string
	recordID string
}

// Transformer converts one source record's field values into the destination
// payload shape, following the sync's field mappings. A transformer lives for
// one run; the reference cache must not outlive it.
type Transformer struct {
	cfg      *models.SyncConfig
	source   SourceAPI
	registry Registry
	reporter Reporter

	refCache map[refKey]string
}

// NewTransformer builds a transformer for one run. registry may be nil when
// no reference fields are mapped; reporter may be nil to discard warnings.
func NewTransformer(cfg *models.SyncConfig, source SourceAPI, registry Registry, reporter Reporter) *Transformer {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Transformer{
		cfg:      cfg,
		source:   source,
		registry: registry,
		reporter: reporter,
		refCache: make(map[refKey]string),
	}
}

// Build produces the destination payload for one record. Bookkeeping fields
// never appear in the payload; absent source values become the field type's
// empty value so updates clear stale destination data. Reference fields whose
// collection no configured sync owns are omitted entirely, leaving the
// destination value untouched.
func (t *Transformer) Build(ctx context.Context, rec *Record) (*webflow.ItemPayload, error) {
	payload := &webflow.ItemPayload{Fields: make(map[string]any)}

	for i := range t.cfg.Fields {
		f := &t.cfg.Fields[i]
		switch f.Special {
		case models.SpecialName:
			payload.Name = rec.Fields.String(f.AirtableName)
			continue
		case models.SpecialSlug:
			payload.Slug = rec.Fields.String(f.AirtableName)
			continue
		case models.SpecialState, models.SpecialItemID, models.SpecialLastPublished:
			continue
		}

		value, ok, err := t.fieldValue(ctx, rec, f)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.AirtableName, err)
		}
		if !ok {
			continue
		}
		payload.Fields[f.WebflowSlug] = value
	}
	return payload, nil
}

// fieldValue returns the destination value for one mapping. ok is false when
// the field must be left out of the payload.
func (t *Transformer) fieldValue(ctx context.Context, rec *Record, f *models.FieldMapping) (any, bool, error) {
	switch f.WebflowType {
	case "RichText":
		html, err := MarkdownToHTML(rec.Fields.String(f.AirtableName))
		return html, true, err

	case "Image", "File":
		atts := rec.Fields.Attachments(f.AirtableName)
		if len(atts) == 0 {
			// An explicit empty list clears the destination field; omitting
			// the key would leave a stale value in place.
			return []any{}, true, nil
		}
		return webflow.ImageRef{URL: atts[0].URL}, true, nil

	case "MultiImage":
		atts := rec.Fields.Attachments(f.AirtableName)
		refs := make([]webflow.ImageRef, 0, len(atts))
		for _, a := range atts {
			refs = append(refs, webflow.ImageRef{URL: a.URL})
		}
		return refs, true, nil

	case "Reference":
		ids, ok, err := t.resolveReferences(ctx, rec, f)
		if err != nil || !ok {
			return nil, false, err
		}
		if len(ids) == 0 {
			return "", true, nil
		}
		return ids[0], true, nil

	case "MultiReference":
		ids, ok, err := t.resolveReferences(ctx, rec, f)
		if err != nil || !ok {
			return nil, false, err
		}
		return ids, true, nil
	}

	if !rec.Fields.Has(f.AirtableName) {
		return "", true, nil
	}
	return rec.Fields[f.AirtableName], true, nil
}

// resolveReferences maps linked Airtable record ids onto the Webflow item ids
// of the sibling sync that owns the referenced collection. Linked records not
// yet synced contribute nothing. ok is false when no configured sync owns the
// collection; the field is then skipped with a warning rather than cleared.
func (t *Transformer) resolveReferences(ctx context.Context, rec *Record, f *models.FieldMapping) ([]string, bool, error) {
	linked := rec.Fields.LinkedIDs(f.AirtableName)
	if len(linked) == 0 {
		return []string{}, true, nil
	}

	var sibling *models.SyncConfig
	if t.registry != nil {
		sibling = t.registry.FindByCollection(f.Validations.CollectionID)
	}
	if sibling == nil {
		t.reporter.Warnf("field %q references collection %s which no configured sync targets; skipping",
			f.AirtableName, f.Validations.CollectionID)
		return nil, false, nil
	}
	siblingItemID := sibling.Special(models.SpecialItemID)
	if siblingItemID == nil {
		return nil, false, fmt.Errorf("sync %q has no item ID field mapping", sibling.Name)
	}

	out := make([]string, 0, len(linked))
	for _, recordID := range linked {
		itemID, err := t.lookupItemID(ctx, f.Options.LinkedTableID, recordID, siblingItemID.AirtableName)
		if err != nil {
			return nil, false, err
		}
		if itemID != "" {
			out = append(out, itemID)
		}
	}
	return out, true, nil
}

func (t *Transformer) lookupItemID(ctx context.Context, tableID, recordID, itemIDFieldName string) (string, error) {
	key := refKey{tableID: tableID, recordID: recordID}
	if itemID, ok := t.refCache[key]; ok {
		return itemID, nil
	}
	linked, err := t.source.Record(ctx, tableID, recordID)
	if err != nil {
		return "", fmt.Errorf("fetch linked record %s: %w", recordID, err)
	}
	itemID := linked.Fields.String(itemIDFieldName)
	t.refCache[key] = itemID
	return itemID, nil
}
