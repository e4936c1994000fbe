package webchunk

import "context"

// Metadata keys written by the pipeline.
const (
	MetaSource      = "source"
	MetaTitle       = "title"
	MetaFragments   = "fragments"
	MetaContentHash = "content_hash"
	MetaChunkIndex  = "chunk_index"
	MetaChunkID     = "chunk_id"
)

// IsReservedMetadataKey reports whether key is written by the pipeline and
// so cannot be supplied by a caller.
func IsReservedMetadataKey(key string) bool {
	switch key {
	case MetaSource, MetaTitle, MetaFragments, MetaContentHash, MetaChunkIndex, MetaChunkID:
		return true
	}
	return false
}

// Document represents the text extracted from one fetched page.
// RawContent holds the fetched markup and is never persisted.
//
// A well-formed document carries its SourceURL under Metadata[MetaSource].
// Well-formed documents survive NewDocumentRecord and Record.Document
// unchanged; any other document comes back with the source key added.
type Document struct {
	SourceURL     string            `json:"sourceUrl"`
	RawContent    string            `json:"-"`
	ExtractedText string            `json:"extractedText"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.SourceURL == "" {
		return Errorf(EINVALID, "document source URL required")
	}
	if src, ok := d.Metadata[MetaSource]; ok && src != d.SourceURL {
		return Errorf(EINVALID, "document metadata source %q does not match source URL %q", src, d.SourceURL)
	}
	return nil
}

// Entry pairs a document with the chunks cut from its extracted text.
type Entry struct {
	Document *Document
	Chunks   []Chunk
}

// ScrapeResult is the ordered output of a pipeline run. Entries follow the
// order of the input URLs. Chunked reports whether chunking was enabled,
// which selects the persisted record shape.
type ScrapeResult struct {
	Entries []Entry
	Chunked bool
}

// Records flattens the result into persisted records: one per document, or
// one per chunk when the result is chunked.
func (r ScrapeResult) Records() []Record {
	records := make([]Record, 0, len(r.Entries))
	for _, entry := range r.Entries {
		if !r.Chunked {
			records = append(records, NewDocumentRecord(entry.Document))
			continue
		}
		for i, c := range entry.Chunks {
			records = append(records, NewChunkRecord(c, i, entry.Document.Metadata))
		}
	}
	return records
}

// Failure records a URL that could not be turned into a document.
type Failure struct {
	URL string
	Err error
}

// Sink persists a scrape result to a destination such as a file path.
// Implementations create missing parent directories and report failures
// as *WriteError.
type Sink interface {
	Write(ctx context.Context, result ScrapeResult, destination string) error
}
