// Package moltin implements the catalog, cart and customer ports against the
// Moltin (Elastic Path) REST API.
package moltin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/storefront/internal/logging"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// DefaultBaseURL is the public Moltin API host.
const DefaultBaseURL = "https://api.moltin.com"

// tokenLeeway is how long before expiry a cached access token is renewed.
const tokenLeeway = 60 * time.Second

// SecretGetter resolves the client secret by name, e.g. from Parameter Store.
type SecretGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures a non-2xx response from the API.
type HTTPStatusError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("moltin: %s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to the Moltin API. It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	clientID     string
	clientSecret string
	secrets      SecretGetter
	secretName   string
	logger       *slog.Logger
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClientSecret sets a static client secret.
func WithClientSecret(secret string) Option {
	return func(c *Client) {
		c.clientSecret = secret
	}
}

// WithSecretGetter resolves the client secret lazily from getter under name.
func WithSecretGetter(getter SecretGetter, name string) Option {
	return func(c *Client) {
		c.secrets = getter
		c.secretName = name
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a Client for baseURL authenticating as clientID.
func New(baseURL, clientID string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, errors.New("moltin: client id must not be empty")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.clientSecret == "" && c.secrets == nil {
		return nil, errors.New("moltin: a client secret or secret getter is required")
	}
	return c, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Expires     int64  `json:"expires"`
	ExpiresIn   int64  `json:"expires_in"`
}

// accessToken returns a cached client-credentials token, renewing it shortly before expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Before(c.expiresAt.Add(-tokenLeeway)) {
		return c.token, nil
	}

	secret := c.clientSecret
	if secret == "" {
		s, err := c.secrets.GetParameter(ctx, c.secretName)
		if err != nil {
			return "", fmt.Errorf("%w: resolve client secret: %v", domain.ErrUpstream, err)
		}
		secret = s
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {secret},
		"grant_type":    {"client_credentials"},
	}
	endpoint := c.baseURL + "/oauth/access_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("moltin: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw, err := c.send(req)
	if err != nil {
		return "", err
	}
	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", fmt.Errorf("%w: decode token: %v", domain.ErrUpstream, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", domain.ErrUpstream)
	}

	switch {
	case tr.Expires > 0:
		c.expiresAt = time.Unix(tr.Expires, 0)
	case tr.ExpiresIn > 0:
		c.expiresAt = now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	default:
		c.expiresAt = now.Add(time.Hour)
	}
	c.token = tr.AccessToken
	c.logger.Debug("moltin token refreshed", "expires_at", c.expiresAt)
	return c.token, nil
}

// call performs an authenticated JSON request and decodes the "data" member into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("moltin: marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("moltin: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	raw, err := c.send(req)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return decodeData(raw, out)
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrUpstream, req.Method, req.URL.Path, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		statusErr := &HTTPStatusError{
			StatusCode: res.StatusCode,
			Method:     req.Method,
			URL:        req.URL.Path,
			Body:       string(buf),
		}
		if res.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, statusErr)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, statusErr)
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", domain.ErrUpstream, err)
	}
	return buf, nil
}

// decodeData unpacks a JSON:API envelope. The "data" member is decoded with
// mapstructure so resources only declare the attributes they read.
func decodeData(raw []byte, out any) error {
	var envelope struct {
		Data any `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("moltin: build decoder: %w", err)
	}
	if err := dec.Decode(envelope.Data); err != nil {
		return fmt.Errorf("%w: decode data: %v", domain.ErrUpstream, err)
	}
	return nil
}

var (
	_ ports.Catalog   = (*Client)(nil)
	_ ports.Cart      = (*Client)(nil)
	_ ports.Customers = (*Client)(nil)
)
