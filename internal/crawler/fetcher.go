package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/proxy"

	"github.com/nao1215/docsearch/internal/model"
)

// Default fetcher settings.
const (
	// DefaultFetchTimeout bounds one request including the body read.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxBodySize limits how much of a response body is parsed.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent identifies the crawler in server logs.
	DefaultUserAgent = "docsearch/1.0 (+https://github.com/nao1215/docsearch)"

	// maxRedirects matches the net/http default.
	maxRedirects = 10
)

// Fetcher retrieves one page. Implementations own retry, timeout and
// transport policy; the engine never retries a failed URL.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (*model.Page, error)
}

// HTTPFetcher is a Fetcher backed by net/http.
// Only 2xx HTML responses are returned as pages.
type HTTPFetcher struct {
	client         *http.Client
	userAgent      string
	maxBodySize    int64
	headers        map[string]string
	redirectFilter *DomainFilter
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*fetcherConfig)

type fetcherConfig struct {
	client         *http.Client
	timeout        time.Duration
	userAgent      string
	maxBodySize    int64
	headers        map[string]string
	redirectFilter *DomainFilter
	proxyAddress   string
}

// WithHTTPClient uses client as the base for requests.
// The client is copied; its redirect policy is replaced.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(c *fetcherConfig) {
		c.client = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(c *fetcherConfig) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(c *fetcherConfig) {
		c.userAgent = ua
	}
}

// WithMaxBodySize limits the number of body bytes parsed per page.
func WithMaxBodySize(size int64) FetcherOption {
	return func(c *fetcherConfig) {
		c.maxBodySize = size
	}
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(c *fetcherConfig) {
		c.headers = headers
	}
}

// WithRedirectFilter refuses redirects to hosts the filter does not allow.
func WithRedirectFilter(filter *DomainFilter) FetcherOption {
	return func(c *fetcherConfig) {
		c.redirectFilter = filter
	}
}

// WithSOCKS5Proxy routes all connections through the SOCKS5 proxy at
// address ("host:port").
func WithSOCKS5Proxy(address string) FetcherOption {
	return func(c *fetcherConfig) {
		c.proxyAddress = address
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts ...FetcherOption) (*HTTPFetcher, error) {
	cfg := fetcherConfig{
		timeout:     DefaultFetchTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var client http.Client
	if cfg.client != nil {
		client = *cfg.client
	} else {
		transport, err := newTransport(cfg.proxyAddress)
		if err != nil {
			return nil, err
		}
		client = http.Client{Transport: transport, Timeout: cfg.timeout}
	}

	f := &HTTPFetcher{
		userAgent:      cfg.userAgent,
		maxBodySize:    cfg.maxBodySize,
		headers:        cfg.headers,
		redirectFilter: cfg.redirectFilter,
	}
	client.CheckRedirect = f.checkRedirect
	f.client = &client

	return f, nil
}

// newTransport clones the default transport and, when proxyAddress is set,
// dials through a SOCKS5 proxy.
func newTransport(proxyAddress string) (*http.Transport, error) {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("default transport is not *http.Transport")
	}
	transport = transport.Clone()
	transport.MaxIdleConnsPerHost = 16

	if proxyAddress == "" {
		return transport, nil
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	contextDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}
	transport.Proxy = nil
	transport.DialContext = contextDialer.DialContext

	return transport, nil
}

// checkRedirect keeps every hop of a redirect chain inside the domain.
func (f *HTTPFetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if f.redirectFilter != nil && !f.redirectFilter.AllowsHost(req.URL) {
		return fmt.Errorf("%w: %s", ErrRedirectOutsideDomain, req.URL)
	}
	return nil
}

// Fetch requests u and parses the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, contentType)
	}

	root, err := html.Parse(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &model.Page{
		RequestedURL: u,
		ResponseURL:  withoutFragment(resp.Request.URL),
		StatusCode:   resp.StatusCode,
		ContentType:  contentType,
		Document:     goquery.NewDocumentFromNode(root),
	}, nil
}

// isHTMLContentType accepts text/html and XHTML. A missing header is
// treated as HTML.
func isHTMLContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
