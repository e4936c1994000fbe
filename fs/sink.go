// Package fs provides file-based persistence for scrape results.
package fs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fwojciec/webchunk"
)

// Ensure Sink implements webchunk.Sink at compile time.
var _ webchunk.Sink = (*Sink)(nil)

// Sink writes scrape results to a single file using a record codec.
//
// Records are written to a temporary file next to the destination, which
// is renamed over the destination only after encoding succeeds. A failed
// write never leaves a partial file behind.
type Sink struct {
	codec webchunk.RecordCodec
}

// NewSink creates a new Sink that encodes records with codec.
func NewSink(codec webchunk.RecordCodec) *Sink {
	return &Sink{codec: codec}
}

// Write persists result to destination, creating missing parent
// directories. An existing file at destination is replaced.
func (s *Sink) Write(ctx context.Context, result webchunk.ScrapeResult, destination string) error {
	if destination == "" {
		return webchunk.Errorf(webchunk.EINVALID, "destination path required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return &webchunk.WriteError{Path: destination, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(destination), filepath.Base(destination)+".*.tmp")
	if err != nil {
		return &webchunk.WriteError{Path: destination, Err: err}
	}
	// Removing after a successful rename fails harmlessly.
	defer os.Remove(tmp.Name())

	if err := s.codec.Encode(tmp, result.Records()); err != nil {
		tmp.Close()
		return &webchunk.WriteError{Path: destination, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &webchunk.WriteError{Path: destination, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return &webchunk.WriteError{Path: destination, Err: err}
	}

	if err := os.Rename(tmp.Name(), destination); err != nil {
		return &webchunk.WriteError{Path: destination, Err: err}
	}
	return nil
}

// Read decodes the records stored at path.
func (s *Sink) Read(path string) ([]webchunk.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, webchunk.Errorf(webchunk.ENOTFOUND, "no records at %s", path)
		}
		return nil, err
	}
	defer f.Close()

	return s.codec.Decode(f)
}
