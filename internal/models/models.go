// Package models defines the persisted sync-configuration data model shared
// by the setup flow, the platform clients, and the sync engine.
package models

// SpecialField marks a field mapping with a reserved synchronization role.
// Exactly one mapping per sync carries each tag; all other mappings carry
// SpecialNone.
type SpecialField string

const (
	SpecialNone          SpecialField = ""
	SpecialName          SpecialField = "name"
	SpecialSlug          SpecialField = "slug"
	SpecialState         SpecialField = "state"
	SpecialItemID        SpecialField = "itemId"
	SpecialLastPublished SpecialField = "lastPublished"
)

// FieldMapping is one correspondence between an Airtable field and a Webflow
// field. The Webflow side is empty for the Airtable-only bookkeeping fields
// (state, item ID, last published).
type FieldMapping struct {
	AirtableID   string `json:"airtable_id,omitempty"`
	AirtableName string `json:"airtable_name,omitempty"`
	AirtableType string `json:"airtable_type,omitempty"`

	WebflowID   string `json:"webflow_id,omitempty"`
	WebflowSlug string `json:"webflow_slug,omitempty"`
	WebflowName string `json:"webflow_name,omitempty"`
	WebflowType string `json:"webflow_type,omitempty"`

	Validations FieldValidations `json:"validations,omitempty"`
	Options     FieldOptions     `json:"options,omitempty"`

	Special SpecialField `json:"special,omitempty"`
}

// FieldValidations holds the Webflow validation constraints we care about.
type FieldValidations struct {
	// CollectionID is the collection a Reference/MultiReference field points at.
	CollectionID string `json:"collection_id,omitempty"`
}

// FieldOptions holds the Airtable field options we care about.
type FieldOptions struct {
	// LinkedTableID is the table a multipleRecordLinks field points at.
	LinkedTableID string `json:"linked_table_id,omitempty"`
	// Choices are the select-option names for single/multi select fields.
	Choices []string `json:"choices,omitempty"`
}

// FieldDescriptor is a platform-neutral description of one field, used for
// cached schemas and for setup-time matching.
type FieldDescriptor struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug,omitempty"` // Webflow only
	Type        string           `json:"type"`
	Validations FieldValidations `json:"validations,omitempty"`
	Options     FieldOptions     `json:"options,omitempty"`
}

// BuildFieldMapping combines an Airtable field descriptor with an optional
// Webflow field descriptor into the mapping format used throughout the app.
// A nil webflowField yields an Airtable-only mapping (used for the
// bookkeeping fields). No special tag is assigned here; callers set it and
// guarantee the tags do not conflict.
func BuildFieldMapping(airtableField, webflowField *FieldDescriptor) FieldMapping {
	var m FieldMapping
	if airtableField != nil {
		m.AirtableID = airtableField.ID
		m.AirtableName = airtableField.Name
		m.AirtableType = airtableField.Type
		m.Options = airtableField.Options
	}
	if webflowField != nil {
		m.WebflowID = webflowField.ID
		m.WebflowName = webflowField.Name
		m.WebflowSlug = webflowField.Slug
		m.WebflowType = webflowField.Type
		m.Validations = webflowField.Validations
	}
	return m
}

// Named is an {id, name} pair for bases, tables, views, sites and collections.
type Named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AirtableConfig describes the source side of a sync.
type AirtableConfig struct {
	APIToken string            `json:"api_token"`
	Base     Named             `json:"base"`
	Table    Named             `json:"table"`
	View     Named             `json:"view"`
	Schema   []FieldDescriptor `json:"schema,omitempty"` // last-known field list
}

// Domain is a Webflow custom domain attached to a site.
type Domain struct {
	ID   string `json:"id"`
	URL  string `json:"url,omitempty"`
	Name string `json:"name,omitempty"`
}

// WebflowConfig describes the destination side of a sync.
type WebflowConfig struct {
	APIKey        string            `json:"api_key"`
	Site          Named             `json:"site"`
	CustomDomains []Domain          `json:"custom_domains,omitempty"`
	Collection    Named             `json:"collection"`
	Fields        []FieldDescriptor `json:"fields,omitempty"` // last-known field list
}

// SyncConfig is one persisted Airtable→Webflow synchronization.
type SyncConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// AutoPublish republishes the whole site when publishing items hits a
	// validation error.
	AutoPublish bool `json:"auto_publish"`
	// DeleteRecords deletes Webflow items that no Airtable record claims
	// ("source is truth" mode).
	DeleteRecords bool `json:"delete_records"`
	// PublishSubdomain also publishes to the webflow.io subdomain when
	// custom domains are configured.
	PublishSubdomain bool `json:"publish_subdomain"`

	// Errors accumulates warnings surfaced during setup. Persisted but not
	// enforced anywhere.
	Errors []string `json:"errors,omitempty"`

	Fields []FieldMapping `json:"fields"`

	Airtable AirtableConfig `json:"airtable"`
	Webflow  WebflowConfig  `json:"webflow"`
}

// Special returns the mapping carrying the given special tag, or nil.
func (c *SyncConfig) Special(tag SpecialField) *FieldMapping {
	for i := range c.Fields {
		if c.Fields[i].Special == tag {
			return &c.Fields[i]
		}
	}
	return nil
}
