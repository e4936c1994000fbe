package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/webchunk"
	"github.com/fwojciec/webchunk/mock"
	wcslog "github.com/fwojciec/webchunk/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("logs discovery with count and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, root string) (*webchunk.Discovery, error) {
				return &webchunk.Discovery{URLs: []string{"https://example.com/a", "https://example.com/b"}}, nil
			},
		}

		svc := wcslog.NewLoggingSitemapService(inner, logger)
		d, err := svc.DiscoverURLs(context.Background(), "https://example.com")

		require.NoError(t, err)
		assert.Len(t, d.URLs, 2)
		output := buf.String()
		assert.Contains(t, output, "sitemap discovery")
		assert.Contains(t, output, "url=https://example.com")
		assert.Contains(t, output, "count=2")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, root string) (*webchunk.Discovery, error) {
				return nil, errors.New("connection failed")
			},
		}

		svc := wcslog.NewLoggingSitemapService(inner, logger)
		_, err := svc.DiscoverURLs(context.Background(), "https://example.com")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "sitemap discovery")
		assert.Contains(t, output, "err=\"connection failed\"")
	})

	t.Run("warns about skipped sitemaps", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, root string) (*webchunk.Discovery, error) {
				return &webchunk.Discovery{
					URLs: []string{"https://example.com/a"},
					Skipped: []webchunk.Failure{{
						URL: "https://example.com/gone.xml",
						Err: &webchunk.FetchError{URL: "https://example.com/gone.xml", Kind: webchunk.FetchStatus, StatusCode: 404},
					}},
				}, nil
			},
		}

		_, err := wcslog.NewLoggingSitemapService(inner, logger).DiscoverURLs(context.Background(), "https://example.com")

		require.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=WARN msg=\"sitemap skipped\" url=https://example.com/gone.xml")
		assert.Contains(t, output, "HTTP 404")
		assert.Contains(t, output, "skipped=1")
	})
}
