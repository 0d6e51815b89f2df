package client

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/habedi/apiclient/auth"
	"github.com/habedi/apiclient/pkg/validation"
	"github.com/habedi/apiclient/storage"
	"golang.org/x/sync/singleflight"
)

// DefaultTokenPath is the OAuth token endpoint used for login and refresh.
const DefaultTokenPath = "/auth/oauth/token"

// Header names sent with every request.
const (
	HeaderAPIKey     = "api-key"
	HeaderTenantName = "tenantName"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	TenantName string
	// Headers are added to every request after the defaults.
	Headers   map[string]string
	TokenPath string
	// ClientID is sent with password-grant logins when set.
	ClientID string
	Timeout  time.Duration
	// RateLimit caps requests per second. Zero means unlimited.
	RateLimit float64

	// HTTPClient overrides the transport. Its Timeout is left untouched.
	HTTPClient *http.Client
	Store      storage.CredentialStore
	Codec      auth.TokenCodec
	Now        func() time.Time
}

// Client is an HTTP client for a bearer-token API. It attaches the held access token
// to requests and, on a 401, refreshes the token pair once per burst of failures and
// retries the request once.
type Client struct {
	baseURL   string
	http      *http.Client
	headers   http.Header
	tokenPath string
	clientID  string
	store     storage.CredentialStore
	codec     auth.TokenCodec
	now       func() time.Time
	limiter   *RateLimiter

	mu     sync.RWMutex
	tokens *TokenPair

	refreshGroup singleflight.Group
}

// New creates a Client. The returned client holds no tokens until SetTokens,
// RestoreTokens or Login is called.
func New(opts Options) (*Client, error) {
	if err := validation.ValidateBaseURL(opts.BaseURL); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      opts.HTTPClient,
		headers:   make(http.Header),
		tokenPath: opts.TokenPath,
		clientID:  opts.ClientID,
		store:     opts.Store,
		codec:     opts.Codec,
		now:       opts.Now,
		limiter:   NewRateLimiter(opts.RateLimit),
	}

	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.tokenPath == "" {
		c.tokenPath = DefaultTokenPath
	}
	if err := validation.ValidateEndpointPath(c.tokenPath); err != nil {
		return nil, fmt.Errorf("invalid token path: %w", err)
	}
	if c.store == nil {
		c.store = storage.NewMemoryStore()
	}
	if c.codec == nil {
		c.codec = auth.NewJWTCodec()
	}
	if c.now == nil {
		c.now = time.Now
	}

	c.headers.Set("Content-Type", "application/json")
	if opts.APIKey != "" {
		c.headers.Set(HeaderAPIKey, opts.APIKey)
	}
	if opts.TenantName != "" {
		c.headers.Set(HeaderTenantName, opts.TenantName)
	}
	for k, v := range opts.Headers {
		c.headers.Set(k, v)
	}

	return c, nil
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store returns the credential store backing the client.
func (c *Client) Store() storage.CredentialStore {
	return c.store
}

// resolveURL joins a relative endpoint onto the base URL, keeping any base path.
func (c *Client) resolveURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}
