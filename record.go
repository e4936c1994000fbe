package webchunk

import (
	"io"
	"maps"
	"strconv"
)

// Record is the flat persisted shape of a document or a chunk.
// Document records carry only PageContent and Metadata; chunk records also
// carry their offsets. Field names are stable across versions.
type Record struct {
	PageContent         string            `json:"page_content" yaml:"page_content"`
	Metadata            map[string]string `json:"metadata" yaml:"metadata"`
	StartOffset         *int              `json:"start_offset,omitempty" yaml:"start_offset,omitempty"`
	EndOffset           *int              `json:"end_offset,omitempty" yaml:"end_offset,omitempty"`
	OverlapWithPrevious *int              `json:"overlap_with_previous,omitempty" yaml:"overlap_with_previous,omitempty"`
}

// RecordCodec encodes records to and decodes records from a storage format.
// Decoding ignores fields it does not know.
type RecordCodec interface {
	Encode(w io.Writer, records []Record) error
	Decode(r io.Reader) ([]Record, error)

	// Extension returns the file extension for the format, e.g. ".json".
	Extension() string
}

// NewDocumentRecord converts a document into its persisted shape.
// The source URL is always stored under the "source" metadata key, which
// normalizes a document that lacks it to the well-formed form.
func NewDocumentRecord(doc *Document) Record {
	meta := make(map[string]string, len(doc.Metadata)+1)
	maps.Copy(meta, doc.Metadata)
	meta[MetaSource] = doc.SourceURL
	return Record{
		PageContent: doc.ExtractedText,
		Metadata:    meta,
	}
}

// NewChunkRecord converts a chunk into its persisted shape. The record
// metadata starts from docMeta and adds the chunk's position and ID.
func NewChunkRecord(c Chunk, index int, docMeta map[string]string) Record {
	meta := make(map[string]string, len(docMeta)+3)
	maps.Copy(meta, docMeta)
	meta[MetaSource] = c.SourceURL
	meta[MetaChunkIndex] = strconv.Itoa(index)
	if c.ID != "" {
		meta[MetaChunkID] = c.ID
	}

	start, end, overlap := c.StartOffset, c.EndOffset, c.OverlapWithPrevious
	return Record{
		PageContent:         c.Text,
		Metadata:            meta,
		StartOffset:         &start,
		EndOffset:           &end,
		OverlapWithPrevious: &overlap,
	}
}

// IsChunk reports whether the record has the chunk shape.
func (r Record) IsChunk() bool {
	return r.StartOffset != nil && r.EndOffset != nil
}

// Document converts a record back into a document.
func (r Record) Document() *Document {
	return &Document{
		SourceURL:     r.Metadata[MetaSource],
		ExtractedText: r.PageContent,
		Metadata:      maps.Clone(r.Metadata),
	}
}

// Chunk converts a chunk record back into a chunk.
// Returns EINVALID if the record lacks chunk offsets.
func (r Record) Chunk() (Chunk, error) {
	if !r.IsChunk() {
		return Chunk{}, Errorf(EINVALID, "record is not a chunk: missing offsets")
	}
	c := Chunk{
		ID:          r.Metadata[MetaChunkID],
		Text:        r.PageContent,
		StartOffset: *r.StartOffset,
		EndOffset:   *r.EndOffset,
		SourceURL:   r.Metadata[MetaSource],
	}
	if r.OverlapWithPrevious != nil {
		c.OverlapWithPrevious = *r.OverlapWithPrevious
	}
	return c, nil
}
