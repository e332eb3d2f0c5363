package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/viviztech/voterapp/internal/llm"
)

// VoterRepository persists extracted voter records and polling stations.
type VoterRepository interface {
	EnsureDefaultStation(ctx context.Context) (int64, error)
	InsertVoters(ctx context.Context, records []llm.Record, stationID int64) (inserted, skipped int, err error)
}

var _ VoterRepository = (*Store)(nil)

// EnsureDefaultStation guarantees the Unknown/Default polling station exists
// and returns its id. Safe to call once per run; re-creation attempts against
// an existing row are tolerated, not fatal.
func (s *Store) EnsureDefaultStation(ctx context.Context) (int64, error) {
	const sel = `SELECT id FROM polling_stations WHERE booth_no = ? AND location_name = ?`

	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(sel), "Unknown", "Default").Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	const ins = `INSERT INTO polling_stations (booth_no, location_name) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, s.rebind(ins), "Unknown", "Default"); err != nil {
		// a concurrent or earlier run may have created it between the two statements
		s.logger.Warn("default station insert failed, re-reading", "error", err)
	}
	if err := s.db.QueryRowContext(ctx, s.rebind(sel), "Unknown", "Default").Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// InsertVoters inserts each record, coercing fields and snapshotting the
// pre-coercion mapping into raw_text. Records whose epic number already exists
// are skipped via ON CONFLICT DO NOTHING; skipping is intentional
// deduplication and never aborts the rest of the batch.
func (s *Store) InsertVoters(ctx context.Context, records []llm.Record, stationID int64) (int, int, error) {
	const ins = `INSERT INTO voters
		(epic_number, name, relation_type, relation_name, house_number, age, gender, polling_station_id, raw_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (epic_number) DO NOTHING`

	var inserted, skipped int
	for _, rec := range records {
		res, err := s.db.ExecContext(ctx, s.rebind(ins),
			nullIfEmpty(rec.Field("epic_number")),
			rec.Field("name"),
			rec.Field("relation_type"),
			rec.Field("relation_name"),
			rec.Field("house_number"),
			rec.Age(),
			rec.Field("gender"),
			stationID,
			rec.RawJSON(),
		)
		if err != nil {
			return inserted, skipped, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, skipped, err
		}
		if n == 0 {
			skipped++
			s.logger.Debug("duplicate voter skipped", "epic_number", rec.Field("epic_number"))
			continue
		}
		inserted++
	}

	s.logger.Info("voter batch persisted",
		slog.Int("records", len(records)),
		slog.Int("inserted", inserted),
		slog.Int("skipped", skipped),
	)
	return inserted, skipped, nil
}

// nullIfEmpty maps empty epic numbers to NULL so uniqueness is only enforced
// for real identifiers.
func nullIfEmpty(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
