// Package identity is an admin client for the target platform's identity
// provider. The pipeline uses it with service-role credentials to create
// pre-confirmed accounts, resolve duplicates by email, and (during cleanup)
// delete migrated accounts. The provider, not this pipeline, is
// authoritative for identity record IDs.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the identity provider's admin endpoints.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates an admin client for the given base URL.
func New(baseURL, serviceKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreateUserRequest is the payload for creating an identity record.
type CreateUserRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

type userRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type userListResponse struct {
	Users []userRecord `json:"users"`
}

// CreateUser creates a pre-confirmed identity record and returns its ID.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (string, error) {
	var resp userRecord
	if err := c.do(ctx, http.MethodPost, "/admin/users", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("identity provider returned no user ID for %s", req.Email)
	}
	return resp.ID, nil
}

// FindUserByEmail looks up an existing identity record by email. Returns a
// 404-class APIError when no record matches.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (string, error) {
	params := url.Values{"email": {email}}

	var resp userListResponse
	if err := c.do(ctx, http.MethodGet, "/admin/users?"+params.Encode(), nil, &resp); err != nil {
		return "", err
	}

	for _, u := range resp.Users {
		if u.Email == email {
			return u.ID, nil
		}
	}
	return "", &APIError{StatusCode: 404, Code: "user_not_found", Message: "no identity record for " + email}
}

// DeleteUser removes an identity record.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil)
}

// do executes an HTTP request and decodes the JSON response.
func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	u := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
