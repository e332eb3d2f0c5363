package store

import (
	"context"
	"fmt"
)

// Provision drops and recreates the three pipeline tables. Destructive;
// intended for cmd/dbinit and tests only.
func (s *Store) Provision(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	timestamp := "TIMESTAMP DEFAULT CURRENT_TIMESTAMP"
	if s.dialect == Postgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`DROP TABLE IF EXISTS voters`,
		`DROP TABLE IF EXISTS extraction_logs`,
		`DROP TABLE IF EXISTS polling_stations`,
		fmt.Sprintf(`CREATE TABLE polling_stations (
			id %s,
			booth_no VARCHAR(50),
			part_no VARCHAR(50),
			section_no VARCHAR(50),
			location_name TEXT,
			assembly_constituency TEXT,
			UNIQUE(part_no, section_no)
		)`, serial),
		fmt.Sprintf(`CREATE TABLE voters (
			id %s,
			epic_number VARCHAR(50) UNIQUE,
			name TEXT,
			relation_type VARCHAR(20),
			relation_name TEXT,
			house_number TEXT,
			age INTEGER,
			gender VARCHAR(20),
			polling_station_id INTEGER,
			raw_text TEXT
		)`, serial),
		fmt.Sprintf(`CREATE TABLE extraction_logs (
			id %s,
			page_number INTEGER,
			status VARCHAR(20),
			error_message TEXT,
			inserted_count INTEGER DEFAULT 0,
			skipped_count INTEGER DEFAULT 0,
			processed_at %s
		)`, serial, timestamp),
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.logger.Error("provision statement failed", "error", err)
			return fmt.Errorf("provision schema: %w", err)
		}
	}
	s.logger.Info("database schema provisioned", "dialect", s.dialect)
	return nil
}
