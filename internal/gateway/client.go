package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/onlyformurshi/zameel-admin-gateway/internal/tokenstore"
)

const (
	loginPath  = "/auth/login"
	logoutPath = "/auth/logout"
)

// APIError is a non-2xx response from the backend, carrying the
// backend-provided message when one was given.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: backend returned %d: %s", e.Status, e.Message)
}

// Client is the only network boundary to the academy backend. It
// exchanges credentials for a bearer token and forwards authenticated
// admin API calls. No retries, no client-side timeout beyond the
// caller's context.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// LoginResult is the backend's successful login response.
type LoginResult struct {
	AccessToken string          `json:"access_token"`
	Admin       tokenstore.User `json:"admin"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Login posts credentials to the backend. Credentials are sent as-is;
// no client-side validation. A non-2xx status yields *APIError with
// the backend message or a generic fallback.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("gateway: encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(resp)
	}

	var result LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("gateway: decode login response: %w", err)
	}

	if result.AccessToken == "" {
		return nil, fmt.Errorf("gateway: login response missing access_token")
	}

	return &result, nil
}

// Logout posts to the backend logout endpoint. Any HTTP status is
// success for local-state purposes; only a transport failure is
// reported, and callers are expected to ignore even that.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+logoutPath, nil)
	if err != nil {
		return fmt.Errorf("gateway: create logout request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: logout: %w", err)
	}
	resp.Body.Close()

	return nil
}

// Forward relays an admin API request to the backend with the bearer
// token attached. The caller owns the returned response body.
func (c *Client) Forward(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body io.Reader,
	contentType string,
	token string,
) (*http.Response, error) {

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: create forward request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: forward %s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) apiError(resp *http.Response) error {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: "login failed",
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}

	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
	}

	return apiErr
}
