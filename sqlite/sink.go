package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/webchunk"
	"github.com/google/uuid"
)

// Ensure Sink implements webchunk.Sink at compile time.
var _ webchunk.Sink = (*Sink)(nil)

// Sink writes scrape results into a SQLite database file.
//
// Each write replaces the previous contents of the database in a single
// transaction, so readers see either the old result or the new one.
// Documents are always stored; chunks are stored when the result is chunked.
type Sink struct{}

// NewSink creates a new Sink.
func NewSink() *Sink {
	return &Sink{}
}

// Write persists result to the database at destination, creating the file
// and its parent directories if needed.
func (s *Sink) Write(ctx context.Context, result webchunk.ScrapeResult, destination string) error {
	if destination == "" {
		return webchunk.Errorf(webchunk.EINVALID, "destination path required")
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return &webchunk.WriteError{Path: destination, Err: err}
	}

	db := NewDB(destination)
	if err := db.Open(); err != nil {
		return &webchunk.WriteError{Path: destination, Err: err}
	}
	defer db.Close()

	if err := writeResult(ctx, db, result); err != nil {
		return &webchunk.WriteError{Path: destination, Err: err}
	}
	return nil
}

// Read returns the records stored at path in the shape they were written.
func (s *Sink) Read(ctx context.Context, path string) ([]webchunk.Record, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, webchunk.Errorf(webchunk.ENOTFOUND, "no records at %s", path)
	}

	db := NewDB(path)
	if err := db.Open(); err != nil {
		return nil, err
	}
	defer db.Close()

	return NewRecordService(db).ReadRecords(ctx)
}

func writeResult(ctx context.Context, db *DB, result webchunk.ScrapeResult) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM chunks", "DELETE FROM documents", "DELETE FROM runs"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	chunked := 0
	if result.Chunked {
		chunked = 1
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, chunked, written_at) VALUES (?, ?, ?)
	`, uuid.New().String(), chunked, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	for position, entry := range result.Entries {
		if err := insertDocument(ctx, tx, position, entry.Document); err != nil {
			return err
		}
		if !result.Chunked {
			continue
		}
		for i, c := range entry.Chunks {
			if err := insertChunk(ctx, tx, position, i, c, entry.Document.Metadata); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func insertDocument(ctx context.Context, tx *sql.Tx, position int, doc *webchunk.Document) error {
	rec := webchunk.NewDocumentRecord(doc)
	meta, err := encodeMetadata(rec.Metadata)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (position, source_url, page_content, metadata, content_hash)
		VALUES (?, ?, ?, ?, ?)
	`, position, doc.SourceURL, rec.PageContent, meta, hashContent(rec.PageContent))
	return err
}

func insertChunk(ctx context.Context, tx *sql.Tx, position, index int, c webchunk.Chunk, docMeta map[string]string) error {
	rec := webchunk.NewChunkRecord(c, index, docMeta)
	meta, err := encodeMetadata(rec.Metadata)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chunks (document_position, chunk_index, chunk_id, page_content, metadata, content_hash,
			start_offset, end_offset, overlap_with_previous)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, position, index, c.ID, rec.PageContent, meta, hashContent(rec.PageContent),
		c.StartOffset, c.EndOffset, c.OverlapWithPrevious)
	return err
}
