package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/webchunk"
	"github.com/fwojciec/webchunk/fs"
	"github.com/fwojciec/webchunk/goquery"
	webchunkhttp "github.com/fwojciec/webchunk/http"
	"github.com/fwojciec/webchunk/json"
	"github.com/fwojciec/webchunk/readability"
	"github.com/fwojciec/webchunk/scrape"
	wcslog "github.com/fwojciec/webchunk/slog"
	"github.com/fwojciec/webchunk/sqlite"
	"github.com/fwojciec/webchunk/trafilatura"
	"github.com/fwojciec/webchunk/yaml"
)

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config kong.ConfigFlag `help:"YAML file with defaults for the flags below" placeholder:"FILE"`

	Tags        []string          `short:"t" default:"h1,h2,h3,h4,h5,h6,p" help:"Element tags to extract"`
	Class       []string          `short:"k" help:"Only extract elements with one of these classes"`
	ChunkSize   int               `default:"0" help:"Maximum chunk size in characters (0 disables chunking)"`
	Overlap     int               `name:"chunk-overlap" default:"0" help:"Characters shared by consecutive chunks"`
	Lookback    int               `default:"0" help:"How far a cut may move back to a boundary (0 = size/5, negative disables)"`
	Boundaries  []string          `default:"paragraph,sentence,whitespace" help:"Boundary preference order for cuts"`
	Concurrency int               `short:"c" default:"1" help:"Concurrent fetch limit"`
	Timeout     time.Duration     `default:"10s" help:"Fetch timeout per page"`
	MainContent string            `default:"none" enum:"none,trafilatura,readability" help:"Reduce pages to their main content first (${enum})"`
	UserAgent   string            `default:"webchunk/1.0" help:"User-Agent header for requests"`
	Sitemap     bool              `help:"Treat URLs as site roots and expand them through their sitemaps"`
	Meta        map[string]string `help:"Metadata added to every record, e.g. --meta=label=agents;lang=en" placeholder:"KEY=VALUE"`
	Verbose     bool              `short:"v" help:"Log every fetch and write to stderr"`

	Output string   `arg:"" required:"" help:"Output file (.json, .yaml, .yml, .db or .sqlite)"`
	URLs   []string `arg:"" required:"" name:"url" help:"Page URLs to scrape"`
}

// request builds and validates the pipeline request from flags.
func (c *CLI) request() (scrape.Request, error) {
	req := scrape.Request{
		URLs:        c.URLs,
		Policy:      webchunk.SelectionPolicy{Tags: c.Tags, ClassFilter: c.Class},
		Destination: c.Output,
		Metadata:    c.Meta,
	}

	if c.ChunkSize != 0 || c.Overlap != 0 {
		cfg := webchunk.ChunkConfig{
			MaxSize:  c.ChunkSize,
			Overlap:  c.Overlap,
			Lookback: c.Lookback,
		}
		for _, name := range c.Boundaries {
			b, err := webchunk.ParseBoundary(name)
			if err != nil {
				return scrape.Request{}, err
			}
			cfg.Boundaries = append(cfg.Boundaries, b)
		}
		req.Chunking = &cfg
	}

	if err := req.Validate(); err != nil {
		return scrape.Request{}, err
	}
	if _, err := sinkFor(c.Output); err != nil {
		return scrape.Request{}, err
	}
	return req, nil
}

// dependencies wires the services selected by flags.
func (c *CLI) dependencies(stderr io.Writer) (*Dependencies, error) {
	logger := slog.New(slog.DiscardHandler)
	if c.Verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	sink, err := sinkFor(c.Output)
	if err != nil {
		return nil, err
	}

	fetcher := wcslog.NewLoggingFetcher(webchunkhttp.NewFetcher(
		webchunkhttp.WithTimeout(c.Timeout),
		webchunkhttp.WithUserAgent(c.UserAgent),
	), logger)

	pipeline := &scrape.Pipeline{
		Fetcher:     fetcher,
		Extractor:   goquery.NewExtractor(),
		Sink:        wcslog.NewLoggingSink(sink, logger),
		Concurrency: c.Concurrency,
		Logger:      logger,
	}
	switch c.MainContent {
	case "trafilatura":
		pipeline.Filter = wcslog.NewLoggingContentFilter(trafilatura.NewFilter(), logger)
	case "readability":
		pipeline.Filter = wcslog.NewLoggingContentFilter(readability.NewFilter(), logger)
	}

	return &Dependencies{
		Pipeline: pipeline,
		Sitemaps: wcslog.NewLoggingSitemapService(webchunkhttp.NewSitemapService(fetcher), logger),
		closers:  []func() error{fetcher.Close},
	}, nil
}

// sinkFor picks a sink from the output file extension.
func sinkFor(output string) (webchunk.Sink, error) {
	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".json":
		return fs.NewSink(json.NewCodec()), nil
	case ".yaml", ".yml":
		return fs.NewSink(yaml.NewCodec()), nil
	case ".db", ".sqlite":
		return sqlite.NewSink(), nil
	default:
		return nil, webchunk.Errorf(webchunk.EINVALID, "unsupported output format %q: use .json, .yaml, .yml, .db or .sqlite", ext)
	}
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	Pipeline *scrape.Pipeline
	Sitemaps webchunk.SitemapService

	closers []func() error
}

// Close releases resources held by the dependencies.
func (d *Dependencies) Close() error {
	var first error
	for _, fn := range d.closers {
		if err := fn(); err != nil && first == nil {
			first = fmt.Errorf("close: %w", err)
		}
	}
	return first
}
