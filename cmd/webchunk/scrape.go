package main

import (
	"fmt"

	"github.com/fwojciec/webchunk"
	"github.com/fwojciec/webchunk/scrape"
)

// ScrapeCmd runs the pipeline and reports the outcome.
type ScrapeCmd struct {
	Request scrape.Request
	Sitemap bool
}

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	req := c.Request

	if c.Sitemap {
		urls, err := c.expand(deps, req.URLs)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", webchunk.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Found %d URLs\n", len(urls))
		req.URLs = urls
	}

	progress := func(e scrape.ProgressEvent) {
		if e.Type == scrape.ProgressFailed {
			fmt.Fprintf(deps.Stderr, "skip %s: %s\n", e.URL, webchunk.ErrorMessage(e.Error))
		}
	}

	result, err := deps.Pipeline.Run(deps.Ctx, req, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webchunk.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, summary(result, req.Destination))
	return nil
}

// expand replaces each site root with the page URLs from its sitemaps.
// A root that cannot be expanded and any broken sitemap are reported and
// skipped. A root whose sitemaps list nothing is kept as a page URL.
func (c *ScrapeCmd) expand(deps *Dependencies, roots []string) ([]string, error) {
	urls := []string{}
	seen := make(map[string]bool)
	add := func(u string) {
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, root := range roots {
		d, err := deps.Sitemaps.DiscoverURLs(deps.Ctx, root)
		if err != nil {
			if ctxErr := deps.Ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			fmt.Fprintf(deps.Stderr, "skip %s: %s\n", root, webchunk.ErrorMessage(err))
			continue
		}
		for _, f := range d.Skipped {
			fmt.Fprintf(deps.Stderr, "skip %s: %s\n", f.URL, webchunk.ErrorMessage(f.Err))
		}
		if d.Truncated {
			fmt.Fprintf(deps.Stderr, "%s: stopped at %d sitemap URLs\n", root, len(d.URLs))
		}
		if len(d.URLs) == 0 {
			add(root)
			continue
		}
		for _, u := range d.URLs {
			add(u)
		}
	}
	return urls, nil
}

func summary(result *scrape.Result, destination string) string {
	bytes := 0
	chunks := 0
	for _, e := range result.Entries {
		bytes += len(e.Document.ExtractedText)
		chunks += len(e.Chunks)
	}

	s := fmt.Sprintf("Saved %d documents", len(result.Entries))
	if result.Chunked {
		s += fmt.Sprintf(" (%d chunks)", chunks)
	}
	s += fmt.Sprintf(", %s of text, to %s", scrape.FormatBytes(bytes), scrape.TruncateURL(destination, 60))
	if len(result.Failures) > 0 {
		s += fmt.Sprintf("; %d failed", len(result.Failures))
	}
	return s
}
