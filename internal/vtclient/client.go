package vtclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/vtlookup/internal/ioc"
	"github.com/nao1215/vtlookup/internal/lookup"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the v2 API root.
	DefaultBaseURL = "https://www.virustotal.com/vtapi/v2"

	// DefaultRequestsPerMinute is the public API budget.
	DefaultRequestsPerMinute = 4

	// DefaultTimeout bounds one request, including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps a response body. A full batch of file reports
	// is well under this.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024

	// DefaultUserAgent identifies the client.
	DefaultUserAgent = "vtlookup"

	// apiKeyParam is the request parameter that carries the API key.
	apiKeyParam = "apikey"
)

// Client is an HTTP implementation of lookup.Gateway.
// It is safe for concurrent use.
type Client struct {
	// === Service ===
	baseURL   string
	apiKey    string
	userAgent string

	// === Transport ===
	httpClient   *http.Client
	proxyAddress string
	timeout      time.Duration
	maxBodySize  int64

	// limiter spaces out requests; nil means no limit.
	limiter           *rate.Limiter
	requestsPerMinute int

	logger *slog.Logger
}

var _ lookup.Gateway = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. an httptest server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the HTTP client. The proxy and timeout options are
// ignored when it is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRequestsPerMinute sets the request budget. Zero or less disables it.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) {
		c.requestsPerMinute = n
	}
}

// WithProxy routes requests through a SOCKS5 proxy at "host:port".
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxBodySize sets the largest response body accepted.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodySize = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the given API key.
//
// The proxy address is validated here, but the proxy is not contacted until
// the first request.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		baseURL:           DefaultBaseURL,
		apiKey:            apiKey,
		userAgent:         DefaultUserAgent,
		timeout:           DefaultTimeout,
		maxBodySize:       DefaultMaxBodySize,
		requestsPerMinute: DefaultRequestsPerMinute,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.requestsPerMinute > 0 {
		// Burst 1: the first request goes out at once, later ones wait their turn.
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.requestsPerMinute)), 1)
	}

	if c.httpClient == nil {
		hc, err := c.newHTTPClient()
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}

	return c, nil
}

// newHTTPClient builds the default HTTP client, dialing through the SOCKS5
// proxy when one is configured.
func (c *Client) newHTTPClient() (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if c.proxyAddress != "" {
		if !isValidProxyAddress(c.proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", c.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
	}, nil
}

// isValidProxyAddress reports whether address is "host:port" with a port in
// 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// Submit sends one batch and returns the raw response.
//
// A non-nil error means no usable response was received. The returned
// Response then has StatusCode 0, or the received status code when only the
// body could not be read. Errors never contain the API key.
func (c *Client) Submit(ctx context.Context, batch string, desc ioc.Descriptor) (lookup.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return lookup.Response{}, fmt.Errorf("waiting for request budget: %w", err)
		}
	}

	req, err := c.newRequest(ctx, batch, desc)
	if err != nil {
		return lookup.Response{}, err
	}

	c.logger.Debug("sending request",
		"method", req.Method,
		"endpoint", c.endpoint(desc),
		"api_type", desc.APIType,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return lookup.Response{}, c.transportError(desc, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp, c.maxBodySize)
	if err != nil {
		return lookup.Response{StatusCode: resp.StatusCode}, fmt.Errorf("%s report: %w", desc.APIType, err)
	}

	c.logger.Debug("received response",
		"api_type", desc.APIType,
		"status", resp.StatusCode,
		"bytes", len(body),
	)

	return lookup.Response{Body: body, StatusCode: resp.StatusCode}, nil
}

// endpoint returns the report URL for a descriptor, without parameters.
func (c *Client) endpoint(desc ioc.Descriptor) string {
	return c.baseURL + "/" + desc.APIType + "/report"
}

// newRequest builds the request: the key and the batch go in the query for
// GET and in a form body for POST.
func (c *Client) newRequest(ctx context.Context, batch string, desc ioc.Descriptor) (*http.Request, error) {
	params := url.Values{}
	params.Set(apiKeyParam, c.apiKey)
	params.Set(desc.ParamName, batch)

	var (
		req *http.Request
		err error
	)
	switch desc.HTTPVerb {
	case http.MethodGet, "":
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(desc)+"?"+params.Encode(), nil)
	case http.MethodPost:
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(desc), strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, desc.HTTPVerb)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range desc.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// transportError rewrites a client error so the request URL, which carries
// the API key, is not part of the message.
func (c *Client) transportError(desc ioc.Descriptor, err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s %s: %w", ue.Op, c.endpoint(desc), ue.Err)
	}
	return fmt.Errorf("%s report: %w", desc.APIType, err)
}
