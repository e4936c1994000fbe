// Package yaml encodes webchunk records as a YAML sequence.
package yaml

import (
	"errors"
	"io"

	"github.com/fwojciec/webchunk"
	"gopkg.in/yaml.v3"
)

// Ensure Codec implements webchunk.RecordCodec at compile time.
var _ webchunk.RecordCodec = (*Codec)(nil)

// Codec reads and writes records as a YAML sequence of mappings.
type Codec struct{}

// NewCodec creates a new Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encode writes records to w.
func (c *Codec) Encode(w io.Writer, records []webchunk.Record) error {
	if records == nil {
		records = []webchunk.Record{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return err
	}
	return enc.Close()
}

// Decode reads a YAML sequence of records from r. Unknown fields are
// ignored and an empty document decodes to no records.
func (c *Codec) Decode(r io.Reader) ([]webchunk.Record, error) {
	var records []webchunk.Record
	if err := yaml.NewDecoder(r).Decode(&records); err != nil && !errors.Is(err, io.EOF) {
		return nil, webchunk.Errorf(webchunk.EINVALID, "decoding YAML records: %v", err)
	}
	for i := range records {
		if records[i].Metadata == nil {
			records[i].Metadata = map[string]string{}
		}
	}
	return records, nil
}

// Extension returns ".yaml".
func (c *Codec) Extension() string {
	return ".yaml"
}
