package webflow

import "github.com/marcus/wfsync/internal/models"

// Item is one entry of a CMS collection.
type Item struct {
	ID            string    `json:"id"`
	CmsLocaleID   string    `json:"cmsLocaleId,omitempty"`
	LastPublished string    `json:"lastPublished,omitempty"`
	LastUpdated   string    `json:"lastUpdated,omitempty"`
	IsArchived    bool      `json:"isArchived"`
	IsDraft       bool      `json:"isDraft"`
	FieldData     FieldData `json:"fieldData"`
}

// FieldData is the slug → value map of an item.
type FieldData map[string]any

// Slug returns the item's slug, or "".
func (d FieldData) Slug() string {
	if s, ok := d["slug"].(string); ok {
		return s
	}
	return ""
}

// Name returns the item's display name, or "".
func (d FieldData) Name() string {
	if s, ok := d["name"].(string); ok {
		return s
	}
	return ""
}

// ItemPayload is the destination-ready shape built by the transformer.
// Name and slug are dedicated keys; everything else is keyed by field slug.
type ItemPayload struct {
	Name   string
	Slug   string
	Fields map[string]any
}

// fieldData flattens the payload into the wire-format fieldData map.
func (p *ItemPayload) fieldData() map[string]any {
	data := make(map[string]any, len(p.Fields)+2)
	for k, v := range p.Fields {
		data[k] = v
	}
	if p.Name != "" {
		data["name"] = p.Name
	}
	if p.Slug != "" {
		data["slug"] = p.Slug
	}
	return data
}

// ImageRef is the {url, alt} shape Webflow expects for image and file fields.
type ImageRef struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Field is one field of a collection schema.
type Field struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"displayName"`
	Slug        string           `json:"slug"`
	Type        string           `json:"type"`
	IsRequired  bool             `json:"isRequired,omitempty"`
	Validations FieldValidations `json:"validations,omitempty"`
}

// FieldValidations carries the validation metadata we consume.
type FieldValidations struct {
	CollectionID string `json:"collectionId,omitempty"`
}

// CollectionSchema is the metadata of one collection.
type CollectionSchema struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"displayName"`
	SingularName string  `json:"singularName,omitempty"`
	Slug         string  `json:"slug,omitempty"`
	Fields       []Field `json:"fields"`
}

// Field returns the schema field with the given id, or nil.
func (s *CollectionSchema) Field(id string) *Field {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i]
		}
	}
	return nil
}

// Descriptors converts the collection's fields into the platform-neutral
// shape cached in sync configs.
func (s *CollectionSchema) Descriptors() []models.FieldDescriptor {
	out := make([]models.FieldDescriptor, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, models.FieldDescriptor{
			ID:   f.ID,
			Name: f.DisplayName,
			Slug: f.Slug,
			Type: f.Type,
			Validations: models.FieldValidations{
				CollectionID: f.Validations.CollectionID,
			},
		})
	}
	return out
}

// PublishResult is the response of a batch item publish.
type PublishResult struct {
	PublishedItemIDs []string `json:"publishedItemIds,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// Site is one site visible to the API key.
type Site struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"displayName"`
	ShortName     string   `json:"shortName,omitempty"`
	CustomDomains []Domain `json:"customDomains,omitempty"`
}

// Domain is a custom domain attached to a site.
type Domain struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// CollectionRef is a collection listing entry.
type CollectionRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Slug        string `json:"slug,omitempty"`
}
