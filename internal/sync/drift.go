package sync

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/marcus/wfsync/internal/airtable"
	"github.com/marcus/wfsync/internal/models"
	"github.com/marcus/wfsync/internal/webflow"
)

// ErrSchemaDrift wraps every fatal schema mismatch found by CheckSchema.
var ErrSchemaDrift = errors.New("schema drift")

// CheckSchema compares both platforms' live schemas against the sync's field
// mappings before a run touches any data.
//
// A mapped field missing on either side is fatal. A type change is adopted
// silently when the new pairing is still compatible and fatal otherwise.
// Renames are always adopted. On success the mappings and the cached schema
// snapshots are updated in place; the caller persists the config.
func CheckSchema(ctx context.Context, cfg *models.SyncConfig, source SourceAPI, dest DestinationAPI) error {
	g, gctx := errgroup.WithContext(ctx)
	var (
		sourceSchema *airtable.TableSchema
		destSchema   *webflow.CollectionSchema
	)
	g.Go(func() error {
		s, err := source.Schema(gctx)
		if err != nil {
			return fmt.Errorf("fetch airtable schema: %w", err)
		}
		sourceSchema = s
		return nil
	})
	g.Go(func() error {
		s, err := dest.Schema(gctx)
		if err != nil {
			return fmt.Errorf("fetch webflow schema: %w", err)
		}
		destSchema = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range cfg.Fields {
		f := &cfg.Fields[i]
		switch f.Special {
		case models.SpecialState, models.SpecialItemID, models.SpecialLastPublished:
			// Bookkeeping fields live only in Airtable and hold plain text;
			// only their presence matters.
			af := sourceSchema.Field(f.AirtableID)
			if af == nil {
				return fmt.Errorf("%w: airtable field %q (%s) no longer exists", ErrSchemaDrift, f.AirtableName, f.AirtableID)
			}
			f.AirtableName = af.Name
			f.AirtableType = af.Type
			continue
		}

		af := sourceSchema.Field(f.AirtableID)
		if af == nil {
			return fmt.Errorf("%w: airtable field %q (%s) no longer exists", ErrSchemaDrift, f.AirtableName, f.AirtableID)
		}
		if af.Type != f.AirtableType && !TypeCompatible(f.WebflowType, af.Type) {
			return fmt.Errorf("%w: airtable field %q changed type from %s to %s, which cannot feed a %s field",
				ErrSchemaDrift, f.AirtableName, f.AirtableType, af.Type, f.WebflowType)
		}

		if f.WebflowID != "" {
			wf := destSchema.Field(f.WebflowID)
			if wf == nil {
				return fmt.Errorf("%w: webflow field %q (%s) no longer exists", ErrSchemaDrift, f.WebflowName, f.WebflowID)
			}
			// Gate against the recorded source type; the fetched one is only
			// adopted below once both sides pass.
			if wf.Type != f.WebflowType && !TypeCompatible(wf.Type, f.AirtableType) {
				return fmt.Errorf("%w: webflow field %q changed type from %s to %s, which %s cannot feed",
					ErrSchemaDrift, f.WebflowName, f.WebflowType, wf.Type, f.AirtableType)
			}
			f.WebflowName = wf.DisplayName
			f.WebflowSlug = wf.Slug
			f.WebflowType = wf.Type
			f.Validations.CollectionID = wf.Validations.CollectionID
		}

		f.AirtableName = af.Name
		f.AirtableType = af.Type
		f.Options.LinkedTableID = af.Options.LinkedTableID
	}

	cfg.Airtable.Schema = sourceSchema.Descriptors()
	cfg.Webflow.Fields = destSchema.Descriptors()
	return nil
}
