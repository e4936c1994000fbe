package webchunk

import "context"

// Fetcher retrieves raw markup from URLs.
type Fetcher interface {
	// Fetch returns the body of the page at url.
	// Failures are reported as *FetchError.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (markup string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// Discovery is the outcome of expanding a site root through its sitemaps.
type Discovery struct {
	// URLs are the page URLs found, in sitemap order and without duplicates.
	URLs []string

	// Skipped lists sitemaps that could not be fetched or parsed. URLs from
	// the other sitemaps are still returned.
	Skipped []Failure

	// Truncated reports that discovery stopped at the URL limit.
	Truncated bool
}

// SitemapService discovers page URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs expands root into page URLs. Sitemaps are taken from
	// robots.txt, falling back to /sitemap.xml, and indexes are followed.
	// Only URLs on root's host and under root's path are returned. An
	// error means root itself is unusable or ctx is done.
	DiscoverURLs(ctx context.Context, root string) (*Discovery, error)
}
