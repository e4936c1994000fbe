package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/webchunk"
)

// Run describes the most recent result written to a database.
type Run struct {
	ID        string
	Chunked   bool
	WrittenAt time.Time
}

// RecordFilter narrows the records returned by FindRecords.
type RecordFilter struct {
	// Chunks selects chunk records instead of document records.
	Chunks bool

	SourceURL *string

	Limit  int
	Offset int
}

// RecordService reads persisted records back from a database.
type RecordService struct {
	db *DB
}

// NewRecordService creates a new RecordService.
func NewRecordService(db *DB) *RecordService {
	return &RecordService{db: db}
}

// FindRun returns the run stored in the database.
// Returns ENOTFOUND if nothing has been written yet.
func (s *RecordService) FindRun(ctx context.Context) (*Run, error) {
	var run Run
	var writtenAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, chunked, written_at FROM runs LIMIT 1
	`).Scan(&run.ID, &run.Chunked, &writtenAt)

	if err == sql.ErrNoRows {
		return nil, webchunk.Errorf(webchunk.ENOTFOUND, "no run found")
	}
	if err != nil {
		return nil, err
	}

	run.WrittenAt, err = parseRFC3339(writtenAt, "written_at")
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FindRecords retrieves records matching the filter in input order.
func (s *RecordService) FindRecords(ctx context.Context, filter RecordFilter) ([]webchunk.Record, error) {
	var query strings.Builder
	var args []any

	if filter.Chunks {
		query.WriteString(`SELECT c.page_content, c.metadata, c.start_offset, c.end_offset, c.overlap_with_previous
			FROM chunks c JOIN documents d ON d.position = c.document_position WHERE 1=1`)
	} else {
		query.WriteString(`SELECT d.page_content, d.metadata FROM documents d WHERE 1=1`)
	}

	if filter.SourceURL != nil {
		query.WriteString(" AND d.source_url = ?")
		args = append(args, *filter.SourceURL)
	}

	if filter.Chunks {
		query.WriteString(" ORDER BY c.document_position ASC, c.chunk_index ASC")
	} else {
		query.WriteString(" ORDER BY d.position ASC")
	}

	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []webchunk.Record{}
	for rows.Next() {
		var rec webchunk.Record
		var meta string

		if filter.Chunks {
			var start, end, overlap int
			if err := rows.Scan(&rec.PageContent, &meta, &start, &end, &overlap); err != nil {
				return nil, err
			}
			rec.StartOffset, rec.EndOffset, rec.OverlapWithPrevious = &start, &end, &overlap
		} else {
			if err := rows.Scan(&rec.PageContent, &meta); err != nil {
				return nil, err
			}
		}

		if rec.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ReadRecords returns the records of the stored run in the shape they were
// written: chunk records for a chunked run, document records otherwise.
func (s *RecordService) ReadRecords(ctx context.Context) ([]webchunk.Record, error) {
	run, err := s.FindRun(ctx)
	if err != nil {
		return nil, err
	}
	return s.FindRecords(ctx, RecordFilter{Chunks: run.Chunked})
}
