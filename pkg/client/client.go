// Package client is a Go client for the portfolio HTTP API.
//
// It mirrors the server's routes: public reads of the portfolio collections and the PA
// tree, the contact form, and the admin writes used by the dashboard. Admin writes that
// run through the consistency routines (update, delete, reorder, replace) return a
// [Result] carrying the server's success/failure/partial [consistency.Outcome]; when the
// server answers with an error status the same outcome is available on [*APIError].
//
//	c := client.NewClient("http://localhost:8080")
//	res, err := c.Delete(ctx, "pa_categories", id)
//	if err != nil {
//		var apiErr *client.APIError
//		if errors.As(err, &apiErr) && apiErr.Outcome != nil {
//			log.Println(apiErr.Outcome.Warnings)
//		}
//		return err
//	}
//	fmt.Println(res.Outcome.Message)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/sonsunin65/portfolio-lugsana/pkg/blob"
	"github.com/sonsunin65/portfolio-lugsana/pkg/consistency"
	"github.com/sonsunin65/portfolio-lugsana/pkg/models"
)

// Client talks to one portfolio server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a response with status 400 or above.
type APIError struct {
	StatusCode int
	Message    string
	// Outcome is set when the server reported the result of a consistency routine.
	Outcome *consistency.Outcome
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Outcome != nil {
		msg = e.Outcome.Message
	}
	return fmt.Sprintf("API error: status=%d, %s", e.StatusCode, msg)
}

// Result is the response of an admin write. Report holds the routine's raw report.
type Result struct {
	Outcome consistency.Outcome `json:"outcome"`
	Report  json.RawMessage     `json:"report,omitempty"`
}

// PAIndicatorTree is an indicator with its works and images.
type PAIndicatorTree struct {
	models.PAIndicator
	Works  []models.PAWork  `json:"works"`
	Images []models.PAImage `json:"images"`
}

// PACategoryTree is a category with its indicators.
type PACategoryTree struct {
	models.PACategory
	Indicators []PAIndicatorTree `json:"indicators"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

// decodeResponse decodes the JSON response into target, or returns an *APIError.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error   string               `json:"error"`
			Outcome *consistency.Outcome `json:"outcome"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Error
			apiErr.Outcome = payload.Outcome
		} else {
			apiErr.Message = string(body)
		}
		return apiErr
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, target)
}

// Health checks the health status of the server
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var result map[string]any
	if err := c.call(ctx, http.MethodGet, "/health", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// List returns the rows of a public collection in display order. A non-empty
// parentID scopes the list by the collection's parent field.
func (c *Client) List(ctx context.Context, collection, parentField, parentID string) ([]map[string]any, error) {
	path := "/api/" + url.PathEscape(collection)
	if parentField != "" && parentID != "" {
		path += "?" + url.Values{parentField: {parentID}}.Encode()
	}
	var rows []map[string]any
	if err := c.call(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Get returns one row of a public collection. A missing row is an *APIError with
// status 404.
func (c *Client) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	var row map[string]any
	if err := c.call(ctx, http.MethodGet, "/api/"+url.PathEscape(collection)+"/"+url.PathEscape(id), nil, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// AdminList returns the rows of any collection, including messages.
func (c *Client) AdminList(ctx context.Context, collection string) ([]map[string]any, error) {
	var rows []map[string]any
	if err := c.call(ctx, http.MethodGet, "/api/admin/"+url.PathEscape(collection), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Stats returns the hero counters in display order.
func (c *Client) Stats(ctx context.Context) ([]models.Stat, error) {
	var out []models.Stat
	if err := c.call(ctx, http.MethodGet, "/api/"+models.CollectionStats, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Activities returns the activities in display order.
func (c *Client) Activities(ctx context.Context) ([]models.Activity, error) {
	var out []models.Activity
	if err := c.call(ctx, http.MethodGet, "/api/"+models.CollectionActivities, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PATree returns the whole performance agreement tree.
func (c *Client) PATree(ctx context.Context) ([]PACategoryTree, error) {
	var out []PACategoryTree
	if err := c.call(ctx, http.MethodGet, "/api/pa", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage submits the contact form.
func (c *Client) SendMessage(ctx context.Context, name, email, message string) (map[string]any, error) {
	var out map[string]any
	body := map[string]string{"name": name, "email": email, "message": message}
	if err := c.call(ctx, http.MethodPost, "/api/messages", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a record and returns it as stored, with its generated id.
func (c *Client) Create(ctx context.Context, collection string, record any) (map[string]any, error) {
	var out map[string]any
	if err := c.call(ctx, http.MethodPost, "/api/admin/"+url.PathEscape(collection), record, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update sets fields on a record. Files the record no longer references are deleted.
func (c *Client) Update(ctx context.Context, collection, id string, fields map[string]any) (*Result, error) {
	return c.write(ctx, http.MethodPut, adminPath(collection, id), fields)
}

// Delete deletes a record with its descendants and files.
func (c *Client) Delete(ctx context.Context, collection, id string) (*Result, error) {
	return c.write(ctx, http.MethodDelete, adminPath(collection, id), nil)
}

// Reorder saves a new order of ids. An empty strategy uses the collection's default.
// Strategy names are those of consistency.ParseStrategy.
func (c *Client) Reorder(ctx context.Context, collection string, ids []string, strategy string) (*Result, error) {
	body := map[string]any{"ids": ids, "strategy": strategy}
	return c.write(ctx, http.MethodPut, adminPath(collection, "order"), body)
}

// Replace replaces the rows of a collection, or of the part selected by scope, with
// rows in the given order.
func (c *Client) Replace(ctx context.Context, collection string, rows []map[string]any, scope map[string]any) (*Result, error) {
	if rows == nil {
		rows = []map[string]any{}
	}
	body := map[string]any{"rows": rows, "scope": scope}
	return c.write(ctx, http.MethodPut, adminPath(collection, "replace"), body)
}

// SetReadOnly toggles maintenance mode.
func (c *Client) SetReadOnly(ctx context.Context, readOnly bool) error {
	return c.call(ctx, http.MethodPut, "/api/admin/read-only", map[string]bool{"read_only": readOnly}, nil)
}

// Upload sends one file and returns its public URL and file type.
func (c *Client) Upload(ctx context.Context, bucket, folder, filename, contentType string, data []byte) (*blob.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	q := url.Values{}
	if bucket != "" {
		q.Set("bucket", bucket)
	}
	if folder != "" {
		q.Set("folder", folder)
	}
	path := "/api/admin/uploads"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	var out blob.UploadResult
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) write(ctx context.Context, method, path string, body any) (*Result, error) {
	var out Result
	if err := c.call(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func adminPath(collection, rest string) string {
	return "/api/admin/" + url.PathEscape(collection) + "/" + url.PathEscape(rest)
}
