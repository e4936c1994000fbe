// Package scrape runs the fetch, extract, chunk and persist pipeline over a
// batch of URLs.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/fwojciec/webchunk"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of fetches in flight when
// Pipeline.Concurrency is zero.
const DefaultConcurrency = 1

// Pipeline turns a list of URLs into documents and chunks and hands them to
// a sink. Filter and Logger are optional.
type Pipeline struct {
	Fetcher     webchunk.Fetcher
	Filter      webchunk.ContentFilter
	Extractor   webchunk.Extractor
	Sink        webchunk.Sink
	Concurrency int
	Logger      *slog.Logger
}

// Request describes one pipeline run. Chunking is nil when documents should
// be persisted whole. Metadata is added to every document, e.g. a label for
// the batch.
type Request struct {
	URLs        []string
	Policy      webchunk.SelectionPolicy
	Chunking    *webchunk.ChunkConfig
	Destination string
	Metadata    map[string]string
}

// Validate returns an error if the request cannot be run.
func (r *Request) Validate() error {
	if err := r.Policy.Validate(); err != nil {
		return err
	}
	if r.Chunking != nil {
		if err := r.Chunking.Validate(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(r.Destination) == "" {
		return webchunk.Errorf(webchunk.EINVALID, "destination required")
	}
	for k := range r.Metadata {
		if strings.TrimSpace(k) == "" {
			return webchunk.Errorf(webchunk.EINVALID, "metadata key must not be blank")
		}
		if webchunk.IsReservedMetadataKey(k) {
			return webchunk.Errorf(webchunk.EINVALID, "metadata key %q is set by the pipeline", k)
		}
	}
	return nil
}

// Result holds the outcome of a run: the persisted entries in input order
// and the URLs that could not be fetched.
type Result struct {
	webchunk.ScrapeResult
	Failures []webchunk.Failure
}

// ProgressEvent reports progress during a run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Bytes     int
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting progress.
type ProgressFunc func(event ProgressEvent)

// fetchResult holds the outcome of fetching a single URL.
type fetchResult struct {
	position int
	url      string
	markup   string
	err      error
}

// Run executes req. Configuration errors are reported before any fetch.
// A URL that fails to fetch is recorded in Result.Failures and does not
// stop the batch. The sink is called exactly once; if it fails, Run
// returns the complete Result together with the write error.
func (p *Pipeline) Run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	concurrency := p.Concurrency
	if concurrency < 0 {
		return nil, webchunk.Errorf(webchunk.EINVALID, "concurrency must not be negative, got %d", concurrency)
	}
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	if p.Fetcher == nil || p.Extractor == nil || p.Sink == nil {
		return nil, webchunk.Errorf(webchunk.EINVALID, "pipeline requires a fetcher, an extractor and a sink")
	}
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	total := len(req.URLs)
	progress(ProgressEvent{Type: ProgressStarted, Total: total})

	fetched := p.fetchAll(ctx, req.URLs, concurrency, progress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{}
	result.Chunked = req.Chunking != nil
	result.Entries = []webchunk.Entry{}

	for _, f := range fetched {
		if f.err != nil {
			result.Failures = append(result.Failures, webchunk.Failure{URL: f.url, Err: f.err})
			continue
		}
		entry, err := p.process(f.url, f.markup, req)
		if err != nil {
			result.Failures = append(result.Failures, webchunk.Failure{URL: f.url, Err: err})
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	if err := p.Sink.Write(ctx, result.ScrapeResult, req.Destination); err != nil {
		if webchunk.ErrorCode(err) != webchunk.EWRITE {
			err = &webchunk.WriteError{Path: req.Destination, Err: err}
		}
		return result, err
	}

	progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	return result, nil
}

// fetchAll fetches urls with at most concurrency requests in flight and
// returns the results indexed by input position. A failed fetch never
// cancels its siblings.
func (p *Pipeline) fetchAll(ctx context.Context, urls []string, concurrency int, progress ProgressFunc) []fetchResult {
	resultCh := make(chan fetchResult, len(urls))

	var g errgroup.Group
	g.SetLimit(concurrency)

	go func() {
		for i, url := range urls {
			g.Go(func() error {
				markup, err := p.Fetcher.Fetch(ctx, url)
				resultCh <- fetchResult{position: i, url: url, markup: markup, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	results := make([]fetchResult, len(urls))
	completed := 0
	for r := range resultCh {
		completed++
		results[r.position] = r

		event := ProgressEvent{
			Type:      ProgressCompleted,
			Completed: completed,
			Total:     len(urls),
			URL:       r.url,
			Bytes:     len(r.markup),
		}
		if r.err != nil {
			event.Type = ProgressFailed
			event.Error = r.err
		}
		progress(event)
	}
	return results
}

// process turns fetched markup into an entry.
func (p *Pipeline) process(url, markup string, req Request) (webchunk.Entry, error) {
	content := markup
	if p.Filter != nil {
		filtered, err := p.Filter.Filter(markup)
		if err != nil {
			p.logger().Warn("main content filter failed, using full page", "url", url, "err", err)
		} else {
			content = filtered
		}
	}

	extracted := p.Extractor.Extract(content, req.Policy)

	meta := make(map[string]string, len(req.Metadata)+4)
	maps.Copy(meta, req.Metadata)
	meta[webchunk.MetaSource] = url
	meta[webchunk.MetaFragments] = strconv.Itoa(len(extracted.Fragments))
	meta[webchunk.MetaContentHash] = computeHash(extracted.Text)

	doc := &webchunk.Document{
		SourceURL:     url,
		RawContent:    markup,
		ExtractedText: extracted.Text,
		Metadata:      meta,
	}
	if extracted.Title != "" {
		doc.Metadata[webchunk.MetaTitle] = extracted.Title
	}
	if err := doc.Validate(); err != nil {
		return webchunk.Entry{}, err
	}

	entry := webchunk.Entry{Document: doc}
	if req.Chunking == nil {
		return entry, nil
	}

	chunks, err := webchunk.SplitText(doc.ExtractedText, url, *req.Chunking)
	if err != nil {
		return webchunk.Entry{}, err
	}
	for i := range chunks {
		chunks[i].ID = chunkID(chunks[i])
	}
	entry.Chunks = chunks
	return entry, nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// chunkID derives a stable identifier from the chunk's source and span, so
// rerunning the same batch yields the same IDs.
func chunkID(c webchunk.Chunk) string {
	name := fmt.Sprintf("%s#%d-%d", c.SourceURL, c.StartOffset, c.EndOffset)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
