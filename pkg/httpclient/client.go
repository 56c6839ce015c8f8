// Package httpclient is a Go client for the runtime HTTP API.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrNotAuthenticated is returned by calls that need a token before Authenticate succeeded
var ErrNotAuthenticated = errors.New("client not authenticated - call Authenticate() first")

// APIError is returned for responses with a status code of 400 or above
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Client provides HTTP client for the runtime API
type Client struct {
	config     Config
	httpClient *http.Client
	token      string
	baseURL    *url.URL
}

// NewClient creates a new HTTP API client
func NewClient(config Config) (*Client, error) {
	config.SetDefaults()

	if config.ServerURL == "" {
		return nil, fmt.Errorf("ServerURL is required")
	}
	if config.ClientID == "" {
		return nil, fmt.Errorf("ClientID is required")
	}

	baseURL, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ServerURL: %w", err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    baseURL,
	}, nil
}

// Authenticate authenticates with the runtime and stores the token
func (c *Client) Authenticate(ctx context.Context) error {
	authReq := map[string]string{
		"clientId": c.config.ClientID,
	}

	var authResp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", authReq, &authResp, false); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	c.token = authResp.Token
	return nil
}

// SendMessage asks the runtime to route a message
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	var resp SendMessageResponse
	if err := c.doAuthed(ctx, http.MethodPost, "/api/v1/messages", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &resp, nil
}

// ListRoutes returns the runtime's routing table
func (c *Client) ListRoutes(ctx context.Context) ([]Route, error) {
	var resp RoutesListResponse
	if err := c.doAuthed(ctx, http.MethodGet, "/api/v1/routes", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return resp.Routes, nil
}

// AddRoute registers the address of a participant (admin only).
// The returned route carries the address the runtime kept.
func (c *Client) AddRoute(ctx context.Context, route Route) (*Route, error) {
	var resp Route
	if err := c.doAuthed(ctx, http.MethodPost, "/api/v1/routes", route, &resp); err != nil {
		return nil, fmt.Errorf("failed to add route: %w", err)
	}
	return &resp, nil
}

// RemoveRoute removes the address of a participant (admin only)
func (c *Client) RemoveRoute(ctx context.Context, participantID string) error {
	path := "/api/v1/routes/" + url.PathEscape(participantID)
	if err := c.doAuthed(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to remove route: %w", err)
	}
	return nil
}

// SubscribeMulticast registers a multicast subscription
func (c *Client) SubscribeMulticast(ctx context.Context, req MulticastSubscribeRequest) (*MulticastSubscription, error) {
	var resp MulticastSubscription
	if err := c.doAuthed(ctx, http.MethodPost, "/api/v1/subscriptions/multicast", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return &resp, nil
}

// ListMulticastSubscriptions returns all multicast subscriptions
func (c *Client) ListMulticastSubscriptions(ctx context.Context) ([]MulticastSubscription, error) {
	var resp MulticastSubscriptionsListResponse
	if err := c.doAuthed(ctx, http.MethodGet, "/api/v1/subscriptions/multicast", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return resp.Subscriptions, nil
}

// UnsubscribeMulticast removes a multicast subscription by id
func (c *Client) UnsubscribeMulticast(ctx context.Context, subscriptionID string) error {
	path := "/api/v1/subscriptions/multicast/" + url.PathEscape(subscriptionID)
	if err := c.doAuthed(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

// GetHealth returns the health status of the runtime.
// An unhealthy runtime answers 503; its status is returned together with the APIError.
func (c *Client) GetHealth(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp, false)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
			return &resp, err
		}
		return nil, fmt.Errorf("failed to get health status: %w", err)
	}
	return &resp, nil
}

func (c *Client) doAuthed(ctx context.Context, method, path string, reqBody, respBody any) error {
	if c.token == "" {
		return ErrNotAuthenticated
	}
	return c.doRequest(ctx, method, path, reqBody, respBody, true)
}

// doRequest performs an HTTP request with optional authentication
func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody any, requireAuth bool) error {
	fullURL := c.baseURL.JoinPath(path)

	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requireAuth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
		var errResp ErrorResponse
		if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Message != "" {
			apiErr.Message = errResp.Message
		}
		// health responses carry a body even when unhealthy
		if respBody != nil && resp.StatusCode == http.StatusServiceUnavailable {
			_ = json.Unmarshal(bodyBytes, respBody)
		}
		return apiErr
	}

	if respBody != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, respBody); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// IsAuthenticated returns whether the client has a valid token
func (c *Client) IsAuthenticated() bool {
	return c.token != ""
}

// GetToken returns the current authentication token
func (c *Client) GetToken() string {
	return c.token
}

// SetToken sets the authentication token (useful for testing or token reuse)
func (c *Client) SetToken(token string) {
	c.token = token
}
