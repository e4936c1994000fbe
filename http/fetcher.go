// Package http provides net/http implementations of webchunk.Fetcher and
// webchunk.SitemapService for static sites that don't require JavaScript
// rendering.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/webchunk"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// DefaultUserAgent identifies the fetcher to servers.
const DefaultUserAgent = "webchunk/1.0"

// Ensure Fetcher implements webchunk.Fetcher at compile time.
var _ webchunk.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content from URLs using HTTP GET requests.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHTTPClient bases the fetcher on a copy of c, so c itself is not
// modified. The copy's Timeout is replaced by the fetcher timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	client := http.Client{}
	if f.client != nil {
		client = *f.client
	}
	client.Timeout = f.timeout
	f.client = &client

	return f
}

// Fetch retrieves the body of url decoded to UTF-8. The source encoding
// comes from the Content-Type charset or, failing that, the document's
// <meta> declaration. Any non-2xx status is a failure. Errors are always
// *webchunk.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &webchunk.FetchError{URL: url, Kind: webchunk.FetchNetwork, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &webchunk.FetchError{URL: url, Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &webchunk.FetchError{URL: url, Kind: webchunk.FetchStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &webchunk.FetchError{URL: url, Kind: classify(err), Err: err}
	}

	markup, err := decode(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &webchunk.FetchError{URL: url, Kind: webchunk.FetchNetwork, Err: err}
	}
	return markup, nil
}

// decode converts body to UTF-8. A charset in contentType always applies.
// Otherwise body that is already valid UTF-8 is kept, and anything else is
// decoded using its <meta> declaration or windows-1252.
func decode(body []byte, contentType string) (string, error) {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return string(body), nil
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", name, err)
	}
	return string(out), nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

func classify(err error) webchunk.FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return webchunk.FetchTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return webchunk.FetchTimeout
	}
	return webchunk.FetchNetwork
}
