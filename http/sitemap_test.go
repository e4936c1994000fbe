package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/webchunk"
	webchunkhttp "github.com/fwojciec/webchunk/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSitemapService(opts ...webchunkhttp.SitemapOption) *webchunkhttp.SitemapService {
	return webchunkhttp.NewSitemapService(webchunkhttp.NewFetcher(), opts...)
}

func TestSitemapService_DiscoverURLs_FromRobotsTxt(t *testing.T) {
	t.Parallel()

	robotsTxt := `User-agent: *
Disallow: /private/
Sitemap: {{BASE}}/sitemap.xml
`
	sitemapXML := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/docs/intro</loc></url>
  <url><loc>{{BASE}}/docs/guide</loc></url>
</urlset>`

	srv := newTestServer(t, map[string]string{
		"/robots.txt":  robotsTxt,
		"/sitemap.xml": sitemapXML,
	})

	d, err := newSitemapService().DiscoverURLs(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/docs/intro", srv.URL + "/docs/guide"}, d.URLs)
	assert.Empty(t, d.Skipped)
	assert.False(t, d.Truncated)
}

func TestSitemapService_DiscoverURLs_RelativeRobotsEntry(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/robots.txt":     "sitemap: /maps/pages.xml\nSitemap:\n",
		"/maps/pages.xml": `<urlset><url><loc>{{BASE}}/page</loc></url></urlset>`,
	})

	d, err := newSitemapService().DiscoverURLs(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/page"}, d.URLs)
	assert.Empty(t, d.Skipped)
}

func TestSitemapService_DiscoverURLs_FallbackToSitemapXML(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/sitemap.xml": `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>{{BASE}}/page1</loc></url></urlset>`,
	})

	d, err := newSitemapService().DiscoverURLs(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/page1"}, d.URLs)
}

func TestSitemapService_DiscoverURLs_SitemapIndex(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/sitemap.xml": `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/sitemap-docs.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-api.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap.xml</loc></sitemap>
</sitemapindex>`,
		"/sitemap-docs.xml": `<urlset><url><loc>{{BASE}}/docs/intro</loc></url></urlset>`,
		"/sitemap-api.xml":  `<urlset><url><loc>{{BASE}}/api/reference</loc></url></urlset>`,
	})

	d, err := newSitemapService().DiscoverURLs(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/docs/intro", srv.URL + "/api/reference"}, d.URLs)
}

func TestSitemapService_DiscoverURLs_PathPrefix(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/sitemap.xml": `<urlset>
  <url><loc>{{BASE}}/blog/intro</loc></url>
  <url><loc>{{BASE}}/about</loc></url>
  <url><loc>{{BASE}}/blogroll</loc></url>
  <url><loc>{{BASE}}/blog/agents</loc></url>
</urlset>`,
	})

	d, err := newSitemapService().DiscoverURLs(context.Background(), srv.URL+"/blog/")

	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/blog/intro", srv.URL + "/blog/agents"}, d.URLs)
}

func TestSitemapService_DiscoverURLs_KeepsOnlyRootHost(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/sitemap.xml": `<urlset>
  <url><loc>{{BASE}}/mine</loc></url>
  <url><loc>https://elsewhere.example/theirs</loc></url>
  <url><loc>ftp://{{HOST}}/file</loc></url>
  <url><loc>{{BASE}}/also-mine</loc></url>
</urlset>`,
	})

	d, err := newSitemapService().DiscoverURLs(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/mine", srv.URL + "/also-mine"}, d.URLs)
}

func TestSitemapService_DiscoverURLs_Deduplicates(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/robots.txt": "Sitemap: {{BASE}}/a.xml\nSitemap: {{BASE}}/b.xml\nSitemap: {{BASE}}/a.xml\n",
		"/a.xml":      `<urlset><url><loc>{{BASE}}/one</loc></url><url><loc>{{BASE}}/two</loc></url></urlset>`,
		"/b.xml":      `<urlset><url><loc>{{BASE}}/two</loc></url><url><loc>{{BASE}}/three</loc></url></urlset>`,
	})

	d, err := newSitemapService().DiscoverURLs(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/one", srv.URL + "/two", srv.URL + "/three"}, d.URLs)
}

func TestSitemapService_DiscoverURLs_CapsURLs(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/sitemap.xml": `<urlset>
  <url><loc>{{BASE}}/1</loc></url>
  <url><loc>{{BASE}}/2</loc></url>
  <url><loc>{{BASE}}/3</loc></url>
</urlset>`,
	})

	t.Run("stops at the limit", func(t *testing.T) {
		t.Parallel()

		d, err := newSitemapService(webchunkhttp.WithMaxURLs(2)).DiscoverURLs(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/1", srv.URL + "/2"}, d.URLs)
		assert.True(t, d.Truncated)
	})

	t.Run("is not truncated when everything fits", func(t *testing.T) {
		t.Parallel()

		d, err := newSitemapService(webchunkhttp.WithMaxURLs(3)).DiscoverURLs(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Len(t, d.URLs, 3)
		assert.False(t, d.Truncated)
	})
}

func TestSitemapService_DiscoverURLs_InvalidRoot(t *testing.T) {
	t.Parallel()

	for _, root := range []string{"not a url", "example.com/docs", "ftp://example.com/"} {
		_, err := webchunkhttp.NewSitemapService(nil).DiscoverURLs(context.Background(), root)

		require.Error(t, err, root)
		assert.Equal(t, webchunk.EINVALID, webchunk.ErrorCode(err), root)
	}
}

// Story: Broken sitemaps
//
// A sitemap that is missing or malformed is reported and skipped. URLs from
// the healthy sitemaps are still returned.

func TestSitemapService_DiscoverURLs_SkipsMissingNestedSitemap(t *testing.T) {
	t.Parallel()

	// Given an index listing one missing and one healthy sitemap
	srv := newTestServer(t, map[string]string{
		"/sitemap.xml": `<sitemapindex>
  <sitemap><loc>{{BASE}}/gone.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/pages.xml</loc></sitemap>
</sitemapindex>`,
		"/pages.xml": `<urlset><url><loc>{{BASE}}/page</loc></url></urlset>`,
	})

	// When I discover URLs
	d, err := newSitemapService().DiscoverURLs(context.Background(), srv.URL)

	// Then the healthy sitemap's pages are returned
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/page"}, d.URLs)

	// And the missing sitemap is reported as a fetch failure
	require.Len(t, d.Skipped, 1)
	assert.Equal(t, srv.URL+"/gone.xml", d.Skipped[0].URL)
	assert.Equal(t, webchunk.EFETCH, webchunk.ErrorCode(d.Skipped[0].Err))
}

func TestSitemapService_DiscoverURLs_SkipsMalformedSitemap(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/robots.txt": "Sitemap: {{BASE}}/broken.xml\nSitemap: {{BASE}}/odd.xml\nSitemap: {{BASE}}/good.xml\n",
		"/broken.xml": `<urlset><<</urlset>`,
		"/odd.xml":    `<rss><channel/></rss>`,
		"/good.xml":   `<urlset><url><loc>{{BASE}}/page</loc></url></urlset>`,
	})

	d, err := newSitemapService().DiscoverURLs(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/page"}, d.URLs)
	require.Len(t, d.Skipped, 2)
	assert.Equal(t, srv.URL+"/broken.xml", d.Skipped[0].URL)
	assert.Equal(t, webchunk.EINVALID, webchunk.ErrorCode(d.Skipped[0].Err))
	assert.Equal(t, srv.URL+"/odd.xml", d.Skipped[1].URL)
	assert.Contains(t, webchunk.ErrorMessage(d.Skipped[1].Err), "<rss>")
}

func TestSitemapService_DiscoverURLs_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{
		"/sitemap.xml": `<urlset><url><loc>{{BASE}}/page1</loc></url></urlset>`,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSitemapService().DiscoverURLs(ctx, srv.URL)

	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSitemapService_DiscoverURLs_NoSitemapFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, map[string]string{})

	d, err := newSitemapService().DiscoverURLs(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.NotNil(t, d.URLs)
	assert.Empty(t, d.URLs)
	assert.Empty(t, d.Skipped)
}

// newTestServer serves the given path->content mapping and answers 404
// elsewhere. {{BASE}} in content is replaced with the server URL and
// {{HOST}} with its host.
func newTestServer(t *testing.T, content map[string]string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := content[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		body = strings.NewReplacer(
			"{{BASE}}", srv.URL,
			"{{HOST}}", strings.TrimPrefix(srv.URL, "http://"),
		).Replace(body)

		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
		} else {
			w.Header().Set("Content-Type", "application/xml")
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}
