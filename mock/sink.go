package mock

import (
	"context"

	"github.com/fwojciec/webchunk"
)

var _ webchunk.Sink = (*Sink)(nil)

// Sink is a mock implementation of webchunk.Sink.
type Sink struct {
	WriteFn func(ctx context.Context, result webchunk.ScrapeResult, destination string) error
}

func (s *Sink) Write(ctx context.Context, result webchunk.ScrapeResult, destination string) error {
	return s.WriteFn(ctx, result, destination)
}
