// Package json encodes webchunk records as a JSON array.
package json

import (
	"encoding/json"
	"io"

	"github.com/fwojciec/webchunk"
)

// Ensure Codec implements webchunk.RecordCodec at compile time.
var _ webchunk.RecordCodec = (*Codec)(nil)

// Codec reads and writes records as an indented JSON array.
type Codec struct{}

// NewCodec creates a new Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encode writes records to w. A nil slice is written as an empty array.
func (c *Codec) Encode(w io.Writer, records []webchunk.Record) error {
	if records == nil {
		records = []webchunk.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

// Decode reads a JSON array of records from r. Unknown fields are ignored.
func (c *Codec) Decode(r io.Reader) ([]webchunk.Record, error) {
	var records []webchunk.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, webchunk.Errorf(webchunk.EINVALID, "decoding JSON records: %v", err)
	}
	for i := range records {
		if records[i].Metadata == nil {
			records[i].Metadata = map[string]string{}
		}
	}
	return records, nil
}

// Extension returns ".json".
func (c *Codec) Extension() string {
	return ".json"
}
