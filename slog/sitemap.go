package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webchunk"
)

// Ensure LoggingSitemapService implements webchunk.SitemapService.
var _ webchunk.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with logging.
type LoggingSitemapService struct {
	next   webchunk.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next webchunk.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs the operation.
// Each skipped sitemap is logged as a warning.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, root string) (d *webchunk.Discovery, err error) {
	defer func(begin time.Time) {
		var count, skipped int
		var truncated bool
		if d != nil {
			count, skipped, truncated = len(d.URLs), len(d.Skipped), d.Truncated
			for _, f := range d.Skipped {
				s.logger.Warn("sitemap skipped", "url", f.URL, "err", f.Err)
			}
		}
		s.logger.Info("sitemap discovery",
			"url", root,
			"count", count,
			"skipped", skipped,
			"truncated", truncated,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, root)
}
