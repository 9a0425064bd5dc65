package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIError carries the status and message of a failed API call.
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (HTTP %d): %s", e.HTTPStatus, e.Message)
}

// Location mirrors the API's location sample document.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// ShareEntry mirrors the API's share entry document.
type ShareEntry struct {
	Owner       string   `json:"owner"`
	SharedWith  []string `json:"sharedWith"`
	IsSharing   bool     `json:"isSharing"`
	LastUpdated int64    `json:"lastUpdated"`
}

// Client is a thin HTTP client for the whereabouts API.
type Client struct {
	BaseURL  string
	Identity string
	HTTP     *http.Client
}

func NewClient(baseURL, identity string) *Client {
	return &Client{
		BaseURL:  baseURL,
		Identity: identity,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-ID", c.Identity)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode, Message: resp.Status}
		var payload struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.Message != "" {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// UploadLocation uploads the caller's current position.
func (c *Client) UploadLocation(ctx context.Context, lat, lon float64) error {
	return c.do(ctx, http.MethodPut, "/v1/location", map[string]interface{}{
		"latitude":  lat,
		"longitude": lon,
		"timestamp": time.Now().UnixMilli(),
	}, nil)
}

// Locations returns the samples visible to the caller.
func (c *Client) Locations(ctx context.Context) ([]Location, error) {
	var resp struct {
		Locations []Location `json:"locations"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/locations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Locations, nil
}

// Shares returns the caller's share entry.
func (c *Client) Shares(ctx context.Context) (*ShareEntry, error) {
	var entry ShareEntry
	if err := c.do(ctx, http.MethodGet, "/v1/shares", nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Share grants grantee visibility of the caller's location.
func (c *Client) Share(ctx context.Context, grantee string) error {
	return c.do(ctx, http.MethodPut, "/v1/shares/"+grantee, nil, nil)
}

// Unshare revokes grantee's visibility of the caller's location.
func (c *Client) Unshare(ctx context.Context, grantee string) error {
	return c.do(ctx, http.MethodDelete, "/v1/shares/"+grantee, nil, nil)
}

// SetSharing flips the caller's sharing toggle.
func (c *Client) SetSharing(ctx context.Context, enabled bool) error {
	return c.do(ctx, http.MethodPut, "/v1/sharing", map[string]interface{}{
		"enabled": enabled,
	}, nil)
}
