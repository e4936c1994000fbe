package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/webchunk"
)

// Ensure LoggingContentFilter implements webchunk.ContentFilter.
var _ webchunk.ContentFilter = (*LoggingContentFilter)(nil)

// LoggingContentFilter wraps a ContentFilter with debug logging.
type LoggingContentFilter struct {
	next   webchunk.ContentFilter
	logger *slog.Logger
}

// NewLoggingContentFilter creates a new LoggingContentFilter.
func NewLoggingContentFilter(next webchunk.ContentFilter, logger *slog.Logger) *LoggingContentFilter {
	return &LoggingContentFilter{next: next, logger: logger}
}

// Filter delegates to the wrapped filter and logs how much markup it kept.
func (f *LoggingContentFilter) Filter(markup string) (out string, err error) {
	defer func(begin time.Time) {
		f.logger.Debug("filter",
			"in", len(markup),
			"out", len(out),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Filter(markup)
}
