package abs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// maxResponseBodySize caps how much of a response body is read, as a
	// guard against misbehaving servers. Library listings on large
	// servers stay well under this.
	maxResponseBodySize = 4 * 1024 * 1024 // 4MB

	// defaultRequestTimeout bounds each individual request.
	defaultRequestTimeout = 10 * time.Second

	// probeEndpoint is the path used to verify the server is reachable
	// and the token is accepted.
	probeEndpoint = "api/libraries"

	// userAgent identifies this client to the server.
	userAgent = "shelfwatch"
)

// Connection pooling configuration. The client talks to a single host,
// so the per-host limits match the total.
const (
	defaultMaxIdleConns    = 10
	defaultMaxConnsPerHost = 10
	defaultIdleConnTimeout = 60 * time.Second
)

// Client is an HTTP client for one Audiobookshelf server. It reuses
// connections across requests and is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a Client for the server at rawURL, authenticating
// every request with the given API token. A URL without a scheme gets
// "http://" prepended; trailing slashes are trimmed.
func NewClient(rawURL, token string) (*Client, error) {
	if token == "" {
		return nil, errors.New("api token cannot be empty")
	}
	base, err := parseBaseURL(rawURL)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConns,
		MaxConnsPerHost:     defaultMaxConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}

	return &Client{
		baseURL:    base,
		token:      token,
		timeout:    defaultRequestTimeout,
		httpClient: &http.Client{Transport: transport},
	}, nil
}

func parseBaseURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, errors.New("server URL cannot be empty")
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("server URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("server URL must include a host")
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	return parsed, nil
}

// BaseURL returns the normalised server URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Probe verifies the server is reachable and accepts the configured
// token. Anything other than a 200 response is an error.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, probeEndpoint)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe returned status %d, want %d", resp.StatusCode, http.StatusOK)
	}
	return nil
}

// GetJSON fetches the endpoint path relative to the server root and
// decodes the response body as a JSON object. A syntactically valid body
// that is not an object (an array, a bare string) yields a nil map and no
// error; callers treat the nil record as missing data for that endpoint.
func (c *Client) GetJSON(ctx context.Context, endpoint string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	obj, _ := payload.(map[string]any)
	return obj, nil
}

func (c *Client) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	target := c.baseURL.JoinPath(strings.TrimPrefix(endpoint, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// Close releases idle connections held by the client. The client remains
// usable afterwards; subsequent requests open fresh connections.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
