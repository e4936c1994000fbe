package http

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/webchunk"
)

// DefaultMaxSitemapURLs bounds the page URLs returned for one root. It is
// the per-file limit of the sitemaps protocol.
const DefaultMaxSitemapURLs = 50000

// Ensure SitemapService implements webchunk.SitemapService.
var _ webchunk.SitemapService = (*SitemapService)(nil)

// SitemapService expands site roots into page URLs using the sitemaps they
// publish. Sitemaps are read through a webchunk.Fetcher and so share its
// timeout, User-Agent and charset decoding.
type SitemapService struct {
	fetcher webchunk.Fetcher
	maxURLs int
}

// SitemapOption configures a SitemapService.
type SitemapOption func(*SitemapService)

// WithMaxURLs caps the URLs returned for one root. Zero or less removes the
// cap.
func WithMaxURLs(n int) SitemapOption {
	return func(s *SitemapService) {
		s.maxURLs = n
	}
}

// NewSitemapService creates a SitemapService that reads through fetcher.
func NewSitemapService(fetcher webchunk.Fetcher, opts ...SitemapOption) *SitemapService {
	s := &SitemapService{fetcher: fetcher, maxURLs: DefaultMaxSitemapURLs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DiscoverURLs walks the sitemaps of root breadth first. Sitemaps listed in
// robots.txt are used; without any, /sitemap.xml is tried and its absence
// is not an error. A sitemap that cannot be fetched or parsed is recorded
// in Discovery.Skipped and the walk continues.
//
// Page URLs must be http(s) on root's host and, when root has a path such
// as https://example.com/blog/, lie under that path at a segment boundary.
func (s *SitemapService) DiscoverURLs(ctx context.Context, root string) (*webchunk.Discovery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sc, err := newScope(root)
	if err != nil {
		return nil, err
	}

	queue, err := s.robotsSitemaps(ctx, sc.origin)
	if err != nil {
		return nil, err
	}
	var fallback string
	if len(queue) == 0 {
		fallback = sc.origin.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
		queue = []string{fallback}
	}

	d := &webchunk.Discovery{URLs: []string{}}
	visited := make(map[string]bool)
	found := make(map[string]bool)

	for len(queue) > 0 && !d.Truncated {
		loc := queue[0]
		queue = queue[1:]
		if visited[loc] {
			continue
		}
		visited[loc] = true

		sm, err := s.readSitemap(ctx, loc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if loc == fallback && isStatusError(err) {
				continue
			}
			d.Skipped = append(d.Skipped, webchunk.Failure{URL: loc, Err: err})
			continue
		}
		queue = append(queue, sm.sitemaps...)

		for _, u := range sm.pages {
			if found[u] || !sc.contains(u) {
				continue
			}
			if s.maxURLs > 0 && len(d.URLs) == s.maxURLs {
				d.Truncated = true
				break
			}
			found[u] = true
			d.URLs = append(d.URLs, u)
		}
	}
	return d, nil
}

// scope is the part of a site a root URL covers.
type scope struct {
	origin *url.URL
	prefix string
}

func newScope(root string) (scope, error) {
	u, err := url.Parse(root)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return scope{}, webchunk.Errorf(webchunk.EINVALID, "invalid site root %q", root)
	}
	return scope{
		origin: &url.URL{Scheme: u.Scheme, Host: u.Host},
		prefix: strings.TrimSuffix(u.Path, "/"),
	}, nil
}

// contains reports whether rawURL is a page inside the scope: /blog covers
// /blog and /blog/post but not /blogroll.
func (sc scope) contains(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	if !strings.EqualFold(u.Host, sc.origin.Host) {
		return false
	}
	return sc.prefix == "" || u.Path == sc.prefix || strings.HasPrefix(u.Path, sc.prefix+"/")
}

// robotsSitemaps returns the Sitemap: entries of the site's robots.txt,
// resolved against origin. A missing or unreadable robots.txt yields none.
func (s *SitemapService) robotsSitemaps(ctx context.Context, origin *url.URL) ([]string, error) {
	body, err := s.fetcher.Fetch(ctx, origin.ResolveReference(&url.URL{Path: "/robots.txt"}).String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, nil
	}

	var locs []string
	for line := range strings.Lines(body) {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		ref, err := origin.Parse(value)
		if err != nil {
			continue
		}
		locs = append(locs, ref.String())
	}
	return locs, nil
}

// sitemap holds the locations one sitemap file lists: pages for a urlset,
// nested sitemaps for a sitemapindex.
type sitemap struct {
	pages    []string
	sitemaps []string
}

func (s *SitemapService) readSitemap(ctx context.Context, loc string) (sitemap, error) {
	body, err := s.fetcher.Fetch(ctx, loc)
	if err != nil {
		return sitemap{}, err
	}

	doc := etree.NewDocument()
	// The fetcher has already decoded the body to UTF-8.
	doc.ReadSettings.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }
	if err := doc.ReadFromString(body); err != nil {
		return sitemap{}, webchunk.Errorf(webchunk.EINVALID, "parsing sitemap %s: %v", loc, err)
	}

	root := doc.Root()
	if root == nil {
		return sitemap{}, webchunk.Errorf(webchunk.EINVALID, "empty sitemap %s", loc)
	}
	switch root.Tag {
	case "urlset":
		return sitemap{pages: locations(root, "url")}, nil
	case "sitemapindex":
		return sitemap{sitemaps: locations(root, "sitemap")}, nil
	default:
		return sitemap{}, webchunk.Errorf(webchunk.EINVALID, "sitemap %s: unexpected root element <%s>", loc, root.Tag)
	}
}

// locations returns the trimmed <loc> text of each entry child of root.
func locations(root *etree.Element, entry string) []string {
	var locs []string
	for _, e := range root.SelectElements(entry) {
		loc := e.SelectElement("loc")
		if loc == nil {
			continue
		}
		if v := strings.TrimSpace(loc.Text()); v != "" {
			locs = append(locs, v)
		}
	}
	return locs
}

func isStatusError(err error) bool {
	var fe *webchunk.FetchError
	return errors.As(err, &fe) && fe.Kind == webchunk.FetchStatus
}
