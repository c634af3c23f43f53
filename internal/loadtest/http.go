package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/vacstat/internal/domain/types"
	"github.com/okian/vacstat/pkg/logger"
)

// Client talks to the vacstat HTTP API.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base:   baseURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Healthz returns nil when GET /healthz answers 200.
func (c *Client) Healthz(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Submit posts an export and returns the stored report id.
func (c *Client) Submit(ctx context.Context, body []byte, profession string) (string, error) {
	path := "/reports?profession=" + url.QueryEscape(profession)
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSubmit, err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: %s", ErrSubmit, describe(resp))
	}
	var out created
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode: %w", ErrSubmit, err)
	}
	return out.ID, nil
}

// Cities fetches a ranked city view of a stored report.
func (c *Client) Cities(ctx context.Context, id, by string) ([]types.Entry, error) {
	resp, err := c.do(ctx, http.MethodGet, "/reports/"+url.PathEscape(id)+"/cities?by="+by, nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cities %s: %s", id, describe(resp))
	}
	var entries []types.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("cities %s: decode: %w", id, err)
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "text/csv")
	}
	return c.client.Do(req)
}

// describe renders a non-success response for error messages.
func describe(resp *http.Response) string {
	var e apiError
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Code == "" {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return fmt.Sprintf("status %d: %s: %s", resp.StatusCode, e.Code, e.Message)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
	}
}
