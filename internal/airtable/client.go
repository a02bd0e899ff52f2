// Package airtable is a minimal client for the Airtable REST and metadata
// APIs, covering just the operations the sync engine and setup flow need.
package airtable

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

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("airtable: unauthorized")
	ErrNotFound     = errors.New("airtable: not found")
	ErrRateLimited  = errors.New("airtable: rate limited")
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Client is an HTTP client for the Airtable API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New creates a client for the given API token.
func New(token string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Table binds the client to one sync's source table.
func (c *Client) Table(cfg *models.AirtableConfig) *TableClient {
	return &TableClient{c: c, cfg: cfg}
}

// TableClient is a Client scoped to a configured base/table/view.
type TableClient struct {
	c   *Client
	cfg *models.AirtableConfig
}

type listRecordsRequest struct {
	View   string `json:"view,omitempty"`
	Offset string `json:"offset,omitempty"`
}

type listRecordsResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// Records retrieves every record of the configured view, following the
// offset token until the API stops returning one. Airtable caps each page
// at 100 records.
func (t *TableClient) Records(ctx context.Context) ([]Record, error) {
	path := fmt.Sprintf("/%s/%s/listRecords", t.cfg.Base.ID, t.cfg.Table.ID)

	var all []Record
	offset := ""
	for {
		body := listRecordsRequest{View: t.cfg.View.ID, Offset: offset}
		var resp listRecordsResponse
		if err := t.c.do(ctx, "POST", path, body, &resp); err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		all = append(all, resp.Records...)
		if resp.Offset == "" {
			return all, nil
		}
		offset = resp.Offset
	}
}

// Record retrieves a single record. An empty tableID defaults to the
// configured table; reference resolution passes the linked table instead.
func (t *TableClient) Record(ctx context.Context, tableID, recordID string) (*Record, error) {
	if tableID == "" {
		tableID = t.cfg.Table.ID
	}
	var rec Record
	path := fmt.Sprintf("/%s/%s/%s", t.cfg.Base.ID, tableID, recordID)
	if err := t.c.do(ctx, "GET", path, nil, &rec); err != nil {
		return nil, fmt.Errorf("get record %s: %w", recordID, err)
	}
	return &rec, nil
}

// UpdateRecord patches the given fields of a record.
func (t *TableClient) UpdateRecord(ctx context.Context, recordID string, fields map[string]any) error {
	body := map[string]any{"fields": fields}
	path := fmt.Sprintf("/%s/%s/%s", t.cfg.Base.ID, t.cfg.Table.ID, recordID)
	if err := t.c.do(ctx, "PATCH", path, body, nil); err != nil {
		return fmt.Errorf("update record %s: %w", recordID, err)
	}
	return nil
}

type baseSchemaResponse struct {
	Tables []TableSchema `json:"tables"`
}

// Schema fetches the base schema and returns the configured table's portion.
// It fails when the table or the configured view no longer exists.
func (t *TableClient) Schema(ctx context.Context) (*TableSchema, error) {
	var resp baseSchemaResponse
	path := fmt.Sprintf("/meta/bases/%s/tables", t.cfg.Base.ID)
	if err := t.c.do(ctx, "GET", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get base schema: %w", err)
	}

	for i := range resp.Tables {
		table := &resp.Tables[i]
		if table.ID != t.cfg.Table.ID {
			continue
		}
		for _, v := range table.Views {
			if v.ID == t.cfg.View.ID {
				return table, nil
			}
		}
		return nil, fmt.Errorf("view %q not found; it may have been deleted", t.cfg.View.Name)
	}
	return nil, fmt.Errorf("table %q not found; it may have been deleted", t.cfg.Table.Name)
}

type listBasesResponse struct {
	Bases  []Base `json:"bases"`
	Offset string `json:"offset,omitempty"`
}

// Bases lists every base the token can see. Also serves as the token
// validity check during setup.
func (c *Client) Bases(ctx context.Context) ([]Base, error) {
	var all []Base
	path := "/meta/bases"
	for {
		var resp listBasesResponse
		if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
			return nil, fmt.Errorf("list bases: %w", err)
		}
		all = append(all, resp.Bases...)
		if resp.Offset == "" {
			return all, nil
		}
		path = "/meta/bases?offset=" + resp.Offset
	}
}

// Tables lists the tables of a base, with their views and fields.
func (c *Client) Tables(ctx context.Context, baseID string) ([]TableSchema, error) {
	var resp baseSchemaResponse
	if err := c.do(ctx, "GET", "/meta/bases/"+baseID+"/tables", nil, &resp); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return resp.Tables, nil
}

// apiError is the standard error body from the Airtable API.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
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
	req.Header.Set("Authorization", "Bearer "+c.Token)
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
			msg = apiErr.Error.Message
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
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
