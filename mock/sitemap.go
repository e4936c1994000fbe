package mock

import (
	"context"

	"github.com/fwojciec/webchunk"
)

var _ webchunk.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of webchunk.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, root string) (*webchunk.Discovery, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, root string) (*webchunk.Discovery, error) {
	return s.DiscoverURLsFn(ctx, root)
}
