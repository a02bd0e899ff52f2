package sync

import (
	"fmt"

	"github.com/marcus/wfsync/internal/airtable"
	"github.com/marcus/wfsync/internal/models"
	"github.com/marcus/wfsync/internal/webflow"
)

const (
	errItemNotFound = "record contains an item ID that was not found in Webflow; " +
		"clear the item ID field or correct it to match an existing item"
	errUnknownState = "state field did not match any of the expected values"
)

// Classify partitions the source records into the create/update/delete/error
// buckets based on each record's state field and cross-reference item id.
//
// Every destination id claimed by a record is marked used, including ids on
// records with a malformed state: a bad state value must never cause an
// accidental deletion. When the delete policy is on, destination items whose
// id was never marked used are appended to the delete bucket as orphans.
//
// The partition is stable: bucket order follows input record order.
func Classify(cfg *models.SyncConfig, records []airtable.Record, items []webflow.Item) (*Buckets, error) {
	itemIDField := cfg.Special(models.SpecialItemID)
	if itemIDField == nil {
		return nil, fmt.Errorf("sync %q has no item ID field mapping", cfg.Name)
	}
	stateField := cfg.Special(models.SpecialState)
	if stateField == nil {
		return nil, fmt.Errorf("sync %q has no state field mapping", cfg.Name)
	}

	known := make(map[string]struct{}, len(items))
	for _, item := range items {
		known[item.ID] = struct{}{}
	}

	b := &Buckets{used: make(map[string]struct{})}

	for i := range records {
		rec := &Record{Record: records[i]}
		itemID := rec.Fields.String(itemIDField.AirtableName)
		_, itemKnown := known[itemID]

		status, recognized := ParseStatus(rec.Fields.String(stateField.AirtableName))
		if !recognized {
			if itemID != "" {
				b.used[itemID] = struct{}{}
			}
			rec.Error = errUnknownState
			b.WithErrors = append(b.WithErrors, rec)
			continue
		}

		switch status {
		case StatusStaging:
			// Already synced; just protect the item.
			if itemID != "" {
				b.used[itemID] = struct{}{}
			}

		case StatusNotSynced:
			// Any id means the item has to go, matched or not; the delete
			// stage clears the id field afterwards either way.
			if itemID != "" {
				b.used[itemID] = struct{}{}
				b.ToDelete = append(b.ToDelete, DeleteTarget{RecordID: rec.ID, ItemID: itemID})
			}

		case StatusQueued, StatusAlways:
			switch {
			case itemID == "":
				b.ToCreate = append(b.ToCreate, rec)
			case !itemKnown:
				b.used[itemID] = struct{}{}
				rec.Error = errItemNotFound
				b.WithErrors = append(b.WithErrors, rec)
			default:
				b.used[itemID] = struct{}{}
				b.ToUpdate = append(b.ToUpdate, rec)
			}
		}
	}

	if cfg.DeleteRecords {
		for _, item := range items {
			if _, ok := b.used[item.ID]; !ok {
				b.ToDelete = append(b.ToDelete, DeleteTarget{ItemID: item.ID})
			}
		}
	}

	return b, nil
}
