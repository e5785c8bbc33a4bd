package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aadi-novice/guardian/internal/credentials"
	"github.com/aadi-novice/guardian/internal/shared"
	"github.com/charmbracelet/log"
)

const defaultBaseURL = "http://localhost:8000/api"

// Client is the authenticated gateway to the CourseGuardian API.
//
// Every outbound request carries the current access credential when one is
// present; requests without a credential proceed unauthenticated and the
// caller decides whether that is valid. 401 responses are routed into the
// refresh coordinator and the original request is replayed at most once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      credentials.Store
	logger     *log.Logger
	refresher  *refreshCoordinator
	onExpired  func()
}

// ClientOpts contains configuration options for creating a [Client].
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Store      credentials.Store
	Logger     *log.Logger
	// OnSessionExpired is the redirect-to-login signal, fired once per
	// terminal authentication failure.
	OnSessionExpired func()
}

// NewClient creates a new API client for the CourseGuardian platform.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Store == nil {
		opts.Store = credentials.NewMemoryStore()
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		store:      opts.Store,
		logger:     opts.Logger,
		onExpired:  opts.OnSessionExpired,
	}
	c.refresher = newRefreshCoordinator(opts.Store, c.refreshAccessToken, opts.OnSessionExpired, opts.Logger)

	return c
}

// rawResponse holds an undecoded API response.
type rawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *rawResponse) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// resolve joins a path with the base URL, passing absolute URLs through
// untouched (signed material URLs point at external storage).
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + path
}

// execute performs one HTTP exchange, attaching the bearer credential and
// recovering from expiry through the refresh coordinator. The attempt counter
// travels alongside the request instead of mutating it: a request is replayed
// at most once, and a 401 on the replay is terminal.
func (c *Client) execute(ctx context.Context, method, path string, payload []byte, contentType string, attempt int) (*rawResponse, error) {
	creds, authed := c.store.Load()
	token := creds.AccessToken

	// A token known to be expired would only burn the request; refresh it
	// up front through the same single-flight path.
	if authed && attempt == 0 && credentials.Expired(token, time.Now()) {
		refreshed, err := c.refresher.Await(ctx)
		if err != nil {
			return nil, err
		}
		token = refreshed
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && authed {
		if attempt > 0 {
			// Second 401 on the replay: terminal, never a new refresh cycle.
			if c.onExpired != nil {
				c.onExpired()
			}
			return nil, fmt.Errorf("%w: request rejected after refresh", shared.ErrTokenExpired)
		}

		if _, err := c.refresher.Await(ctx); err != nil {
			return nil, err
		}
		return c.execute(ctx, method, path, payload, contentType, attempt+1)
	}

	return &rawResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// do performs a JSON exchange with the API, decoding the response into
// result when it is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = data
	}

	raw, err := c.execute(ctx, method, path, payload, "", 0)
	if err != nil {
		return err
	}

	if !raw.ok() {
		return decodeError(raw.StatusCode, raw.Body)
	}

	if result != nil {
		if err := json.Unmarshal(raw.Body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// FetchBinary retrieves a protected binary payload through the authenticated
// channel, returning the body and its content type.
func (c *Client) FetchBinary(ctx context.Context, rawURL string) ([]byte, string, error) {
	raw, err := c.execute(ctx, http.MethodGet, rawURL, nil, "", 0)
	if err != nil {
		return nil, "", err
	}

	if !raw.ok() {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrMediaFetch, decodeError(raw.StatusCode, raw.Body))
	}

	return raw.Body, raw.Header.Get("Content-Type"), nil
}

// TokenQueryURL attaches the current access credential as a token query
// parameter for embedding surfaces that reject an Authorization header.
func (c *Client) TokenQueryURL(rawURL string) (string, error) {
	creds, ok := c.store.Load()
	if !ok {
		return "", shared.ErrNotAuthenticated
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid resource URL: %w", err)
	}

	query := parsed.Query()
	query.Set("token", creds.AccessToken)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

// refreshAccessToken exchanges the refresh token for a new access token.
// Deliberately bypasses execute: the refresh call itself must never recurse
// into the 401 path.
func (c *Client) refreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh/", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeError(resp.StatusCode, data)
	}

	var result struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if result.Access == "" {
		return "", fmt.Errorf("refresh response missing access token")
	}

	return result.Access, nil
}

func decodeInto(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// classifyTransportError maps transport failures onto the shared taxonomy.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", shared.ErrNetworkUnavailable, err)
}
