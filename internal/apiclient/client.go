// Package apiclient is a small HTTP client for the lessee REST API, used by
// the CLI subcommands.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/tphummel/lessee/internal/models"
)

// Client is an HTTP client for the lessee REST API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Client targeting endpoint, e.g. "http://localhost:8080".
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{},
	}
}

// HardwareInput is the body of a create-hardware request.
type HardwareInput struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Platform string `json:"platform"`
}

type leaseInput struct {
	Platform string `json:"platform"`
	Duration int    `json:"duration"`
}

// APIError is a non-success response from the service.
type APIError struct {
	StatusCode int               `json:"-"`
	Message    string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d %s", e.StatusCode, msg)
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return fmt.Sprintf("%d %s (%s)", e.StatusCode, msg, strings.Join(parts, ", "))
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

// call performs a request and decodes the response into out when the status
// is want. Any other status is returned as an *APIError.
func (c *Client) call(ctx context.Context, method, path string, body any, want int, out any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// Non-JSON error bodies still yield the status code.
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListPlatforms returns every platform.
func (c *Client) ListPlatforms(ctx context.Context) ([]models.Platform, error) {
	var out []models.Platform
	if err := c.call(ctx, http.MethodGet, "/api/v1/platforms", nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	return out, nil
}

// ListHardware returns hardware, restricted to platformID when non-empty.
func (c *Client) ListHardware(ctx context.Context, platformID string) ([]models.HardwareDetail, error) {
	path := "/api/v1/hardware"
	if platformID != "" {
		path += "?platform=" + url.QueryEscape(platformID)
	}
	var out []models.HardwareDetail
	if err := c.call(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("list hardware: %w", err)
	}
	return out, nil
}

// GetHardware fetches a single unit by ID. Returns nil, nil when the server
// responds 404.
func (c *Client) GetHardware(ctx context.Context, id string) (*models.HardwareDetail, error) {
	var out models.HardwareDetail
	err := c.call(ctx, http.MethodGet, "/api/v1/hardware/"+url.PathEscape(id), nil, http.StatusOK, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hardware %q: %w", id, err)
	}
	return &out, nil
}

// CreateHardware adds a unit and returns the server-assigned record.
func (c *Client) CreateHardware(ctx context.Context, in HardwareInput) (*models.HardwareDetail, error) {
	var out models.HardwareDetail
	if err := c.call(ctx, http.MethodPost, "/api/v1/hardware", in, http.StatusCreated, &out); err != nil {
		return nil, fmt.Errorf("create hardware: %w", err)
	}
	return &out, nil
}

// ListLeases returns leases, latest end first. With activeOnly set only
// currently active leases are returned.
func (c *Client) ListLeases(ctx context.Context, activeOnly bool) ([]models.LeaseDetail, error) {
	path := "/api/v1/leases"
	if activeOnly {
		path += "?active=true"
	}
	var out []models.LeaseDetail
	if err := c.call(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	return out, nil
}

// CreateLease leases the first available unit of platformID for minutes.
func (c *Client) CreateLease(ctx context.Context, platformID string, minutes int) (*models.LeaseDetail, error) {
	var out models.LeaseDetail
	in := leaseInput{Platform: platformID, Duration: minutes}
	if err := c.call(ctx, http.MethodPost, "/api/v1/leases", in, http.StatusCreated, &out); err != nil {
		return nil, fmt.Errorf("create lease: %w", err)
	}
	return &out, nil
}
