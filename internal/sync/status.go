package sync

// Status is the value of a record's state field, driving classification.
type Status string

const (
	// StatusStaging marks a record as provisionally synced; no action is
	// taken for it beyond protecting its item from deletion.
	StatusStaging Status = "Staging"
	// StatusNotSynced marks a record whose Webflow item, if any, must go.
	StatusNotSynced Status = "Not synced"
	// StatusQueued marks a record to create or update this run; a successful
	// create flips it to Staging.
	StatusQueued Status = "Queued for sync"
	// StatusAlways marks a record to create or update on every run.
	StatusAlways Status = "Always sync"
)

// ParseStatus maps a raw state-field value onto the known status set.
// ok is false for anything else, including the empty string; the raw value
// is returned either way.
func ParseStatus(raw string) (status Status, ok bool) {
	switch Status(raw) {
	case StatusStaging, StatusNotSynced, StatusQueued, StatusAlways:
		return Status(raw), true
	}
	return Status(raw), false
}
