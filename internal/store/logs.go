package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/viviztech/voterapp/constants"
	"github.com/viviztech/voterapp/internal/entity"
)

// parseDBTime tolerates the timestamp formats the two engines emit as text.
func parseDBTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// PageLogRepository records one terminal status entry per processed page.
// The log is append-only: entries are never updated or deleted by the
// pipeline, and repeated runs produce repeated page numbers by design.
type PageLogRepository interface {
	AppendPageLog(ctx context.Context, log entity.PageLog) error
}

var _ PageLogRepository = (*Store)(nil)

// AppendPageLog appends an extraction_logs row. ProcessedAt is assigned by
// the database.
func (s *Store) AppendPageLog(ctx context.Context, log entity.PageLog) error {
	const ins = `INSERT INTO extraction_logs
		(page_number, status, error_message, inserted_count, skipped_count)
		VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.rebind(ins),
		log.PageNumber, log.Status, log.ErrorMessage, log.InsertedCount, log.SkippedCount)
	return err
}

// PageLogs returns all log entries for a page number in insertion order.
// Used by reporting and tests; the pipeline itself only appends.
func (s *Store) PageLogs(ctx context.Context, pageNumber int) ([]entity.PageLog, error) {
	const sel = `SELECT id, page_number, status, error_message, inserted_count, skipped_count, processed_at
		FROM extraction_logs WHERE page_number = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, s.rebind(sel), pageNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.PageLog
	for rows.Next() {
		var l entity.PageLog
		var processedAt sql.NullString
		if err := rows.Scan(&l.ID, &l.PageNumber, &l.Status, &l.ErrorMessage,
			&l.InsertedCount, &l.SkippedCount, &processedAt); err != nil {
			return nil, err
		}
		l.ProcessedAt = parseDBTime(processedAt.String)
		out = append(out, l)
	}
	return out, rows.Err()
}

// FailedPages returns the distinct page numbers whose most recent entry is
// FAILED, for operators deciding whether to rerun a document.
func (s *Store) FailedPages(ctx context.Context) ([]int, error) {
	const sel = `SELECT page_number FROM extraction_logs l
		WHERE id = (SELECT MAX(id) FROM extraction_logs WHERE page_number = l.page_number)
		AND status = ?
		ORDER BY page_number`
	rows, err := s.db.QueryContext(ctx, s.rebind(sel), string(constants.PageStatusFailed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
