package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webchunk"
)

// Ensure LoggingSink implements webchunk.Sink.
var _ webchunk.Sink = (*LoggingSink)(nil)

// LoggingSink wraps a Sink with logging.
type LoggingSink struct {
	next   webchunk.Sink
	logger *slog.Logger
}

// NewLoggingSink creates a new LoggingSink.
func NewLoggingSink(next webchunk.Sink, logger *slog.Logger) *LoggingSink {
	return &LoggingSink{next: next, logger: logger}
}

// Write delegates to the wrapped sink and logs the destination and size.
func (s *LoggingSink) Write(ctx context.Context, result webchunk.ScrapeResult, destination string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("write",
			"destination", destination,
			"documents", len(result.Entries),
			"chunked", result.Chunked,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Write(ctx, result, destination)
}
