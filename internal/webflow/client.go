// Package webflow is a minimal client for the Webflow v2 Data API, covering
// the collection, item and publish operations the sync engine and setup flow
// need.
package webflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marcus/wfsync/internal/models"
)

// Sentinel errors for distinguishable remote conditions.
var (
	ErrUnauthorized = errors.New("webflow: unauthorized")
	ErrNotFound     = errors.New("webflow: not found")
	// ErrConflict signals a 409, e.g. deleting an item that another item
	// still references, or publishing to a never-published site.
	ErrConflict    = errors.New("webflow: conflict")
	ErrRateLimited = errors.New("webflow: rate limited")
)

const (
	defaultBaseURL = "https://api.webflow.com/v2"
	pageSize       = 100
)

// Client is an HTTP client for the Webflow API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New creates a client for the given API key.
func New(apiKey string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Collection binds the client to one sync's destination collection and site.
func (c *Client) Collection(cfg *models.WebflowConfig) *CollectionClient {
	return &CollectionClient{c: c, cfg: cfg}
}

// CollectionClient is a Client scoped to a configured site/collection.
type CollectionClient struct {
	c   *Client
	cfg *models.WebflowConfig
}

type listItemsResponse struct {
	Items      []Item `json:"items"`
	Pagination struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Total  int `json:"total"`
	} `json:"pagination"`
}

// Items retrieves every item of the collection, advancing the offset until
// it reaches the reported total.
func (cc *CollectionClient) Items(ctx context.Context) ([]Item, error) {
	var all []Item
	offset := 0
	for {
		path := fmt.Sprintf("/collections/%s/items?limit=%d&offset=%d", cc.cfg.Collection.ID, pageSize, offset)
		var resp listItemsResponse
		if err := cc.c.do(ctx, "GET", path, nil, &resp); err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		all = append(all, resp.Items...)
		offset += len(resp.Items)
		if offset >= resp.Pagination.Total || len(resp.Items) == 0 {
			return all, nil
		}
	}
}

type itemRequest struct {
	IsArchived bool           `json:"isArchived"`
	IsDraft    bool           `json:"isDraft"`
	FieldData  map[string]any `json:"fieldData"`
}

// CreateItem creates a collection item and returns it with its assigned id
// and echoed field data.
func (cc *CollectionClient) CreateItem(ctx context.Context, payload *ItemPayload) (*Item, error) {
	body := itemRequest{FieldData: payload.fieldData()}
	var item Item
	path := fmt.Sprintf("/collections/%s/items", cc.cfg.Collection.ID)
	if err := cc.c.do(ctx, "POST", path, body, &item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &item, nil
}

// UpdateItem patches an existing collection item.
func (cc *CollectionClient) UpdateItem(ctx context.Context, itemID string, payload *ItemPayload) (*Item, error) {
	body := itemRequest{FieldData: payload.fieldData()}
	var item Item
	path := fmt.Sprintf("/collections/%s/items/%s", cc.cfg.Collection.ID, itemID)
	if err := cc.c.do(ctx, "PATCH", path, body, &item); err != nil {
		return nil, fmt.Errorf("update item %s: %w", itemID, err)
	}
	return &item, nil
}

// DeleteItem deletes a collection item. A 409 surfaces as ErrConflict so the
// caller can skip items still referenced elsewhere.
func (cc *CollectionClient) DeleteItem(ctx context.Context, itemID string) error {
	path := fmt.Sprintf("/collections/%s/items/%s", cc.cfg.Collection.ID, itemID)
	if err := cc.c.do(ctx, "DELETE", path, nil, nil); err != nil {
		return fmt.Errorf("delete item %s: %w", itemID, err)
	}
	return nil
}

// PublishItems batch-publishes the given item ids. Partial validation
// failures arrive in the result's Errors list, not as an error.
func (cc *CollectionClient) PublishItems(ctx context.Context, itemIDs []string) (*PublishResult, error) {
	body := map[string]any{"itemIds": itemIDs}
	var result PublishResult
	path := fmt.Sprintf("/collections/%s/items/publish", cc.cfg.Collection.ID)
	if err := cc.c.do(ctx, "POST", path, body, &result); err != nil {
		return nil, fmt.Errorf("publish items: %w", err)
	}
	return &result, nil
}

type publishSiteRequest struct {
	PublishToWebflowSubdomain bool     `json:"publishToWebflowSubdomain"`
	CustomDomains             []string `json:"customDomains,omitempty"`
}

// PublishSite republishes the whole site. With custom domains configured the
// request targets them, plus the webflow.io subdomain when the sync opts in;
// without any it targets the subdomain.
func (cc *CollectionClient) PublishSite(ctx context.Context, includeSubdomain bool) error {
	body := publishSiteRequest{PublishToWebflowSubdomain: true}
	if len(cc.cfg.CustomDomains) > 0 {
		body.PublishToWebflowSubdomain = includeSubdomain
		for _, d := range cc.cfg.CustomDomains {
			body.CustomDomains = append(body.CustomDomains, d.ID)
		}
	}
	if err := cc.c.do(ctx, "POST", "/sites/"+cc.cfg.Site.ID+"/publish", body, nil); err != nil {
		return fmt.Errorf("publish site: %w", err)
	}
	return nil
}

// Schema fetches the collection's current field list.
func (cc *CollectionClient) Schema(ctx context.Context) (*CollectionSchema, error) {
	return cc.c.CollectionSchema(ctx, cc.cfg.Collection.ID)
}

// CollectionSchema fetches any collection's field list by id.
func (c *Client) CollectionSchema(ctx context.Context, collectionID string) (*CollectionSchema, error) {
	var schema CollectionSchema
	if err := c.do(ctx, "GET", "/collections/"+collectionID, nil, &schema); err != nil {
		return nil, fmt.Errorf("get collection schema: %w", err)
	}
	return &schema, nil
}

type listSitesResponse struct {
	Sites []Site `json:"sites"`
}

// Sites lists every site the key can see. Also serves as the key validity
// check during setup.
func (c *Client) Sites(ctx context.Context) ([]Site, error) {
	var resp listSitesResponse
	if err := c.do(ctx, "GET", "/sites", nil, &resp); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return resp.Sites, nil
}

type listCollectionsResponse struct {
	Collections []CollectionRef `json:"collections"`
}

// Collections lists the CMS collections of a site.
func (c *Client) Collections(ctx context.Context, siteID string) ([]CollectionRef, error) {
	var resp listCollectionsResponse
	if err := c.do(ctx, "GET", "/sites/"+siteID+"/collections", nil, &resp); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return resp.Collections, nil
}

// apiError is the standard error body from the Webflow API.
type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := ""
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil {
			msg = apiErr.Message
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		case http.StatusConflict:
			return fmt.Errorf("%w: %s", ErrConflict, msg)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, msg)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
