package mock

import "github.com/fwojciec/webchunk"

var _ webchunk.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of webchunk.Extractor.
type Extractor struct {
	ExtractFn func(markup string, policy webchunk.SelectionPolicy) *webchunk.ExtractResult
}

func (e *Extractor) Extract(markup string, policy webchunk.SelectionPolicy) *webchunk.ExtractResult {
	return e.ExtractFn(markup, policy)
}

var _ webchunk.ContentFilter = (*ContentFilter)(nil)

// ContentFilter is a mock implementation of webchunk.ContentFilter.
type ContentFilter struct {
	FilterFn func(markup string) (string, error)
}

func (f *ContentFilter) Filter(markup string) (string, error) {
	return f.FilterFn(markup)
}
