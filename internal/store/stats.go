package store

import (
	"context"
	"database/sql"

	"github.com/viviztech/voterapp/internal/entity"
)

// GenderCount is one row of the gender distribution.
type GenderCount struct {
	Gender string
	Count  int
}

// StationCount is the voter count for one polling station.
type StationCount struct {
	StationID int64
	Count     int
}

// RollSummary aggregates the extracted roll for reporting.
type RollSummary struct {
	TotalVoters int
	Gender      []GenderCount
	MinAge      int
	MaxAge      int
	AvgAge      float64
	// 18-29 cohort
	YouthCount  int
	YouthAvgAge float64
	YouthMale   int
	YouthFemale int
	PerStation  []StationCount
}

// Summarize computes the roll aggregates in one pass of small queries.
// Safe against an empty voters table.
func (s *Store) Summarize(ctx context.Context) (*RollSummary, error) {
	sum := &RollSummary{}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM voters`).Scan(&sum.TotalVoters); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT gender, COUNT(*) FROM voters GROUP BY gender ORDER BY gender`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var g sql.NullString
		var c int
		if err := rows.Scan(&g, &c); err != nil {
			rows.Close()
			return nil, err
		}
		sum.Gender = append(sum.Gender, GenderCount{Gender: g.String, Count: c})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var minAge, maxAge sql.NullInt64
	var avgAge sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MIN(age), MAX(age), AVG(age) FROM voters`).Scan(&minAge, &maxAge, &avgAge); err != nil {
		return nil, err
	}
	sum.MinAge = int(minAge.Int64)
	sum.MaxAge = int(maxAge.Int64)
	sum.AvgAge = avgAge.Float64

	var youthAvg sql.NullFloat64
	var youthMale, youthFemale sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			AVG(age),
			SUM(CASE WHEN gender = 'Male' THEN 1 ELSE 0 END),
			SUM(CASE WHEN gender = 'Female' THEN 1 ELSE 0 END)
		FROM voters WHERE age >= 18 AND age <= 29`).
		Scan(&sum.YouthCount, &youthAvg, &youthMale, &youthFemale); err != nil {
		return nil, err
	}
	sum.YouthAvgAge = youthAvg.Float64
	sum.YouthMale = int(youthMale.Int64)
	sum.YouthFemale = int(youthFemale.Int64)

	rows, err = s.db.QueryContext(ctx,
		`SELECT polling_station_id, COUNT(*) FROM voters GROUP BY polling_station_id ORDER BY polling_station_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sc StationCount
		if err := rows.Scan(&sc.StationID, &sc.Count); err != nil {
			return nil, err
		}
		sum.PerStation = append(sum.PerStation, sc)
	}
	return sum, rows.Err()
}

// AllVoters returns the full roll ordered by id, for export.
func (s *Store) AllVoters(ctx context.Context) ([]entity.VoterRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
			id, epic_number, name, relation_type, relation_name,
			house_number, age, gender, polling_station_id, raw_text
		FROM voters ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.VoterRecord
	for rows.Next() {
		var v entity.VoterRecord
		var epic, name, relType, relName, house, gender, raw sql.NullString
		var stationID sql.NullInt64
		if err := rows.Scan(&v.ID, &epic, &name, &relType, &relName,
			&house, &v.Age, &gender, &stationID, &raw); err != nil {
			return nil, err
		}
		v.EpicNumber = epic.String
		v.Name = name.String
		v.RelationType = relType.String
		v.RelationName = relName.String
		v.HouseNumber = house.String
		v.Gender = gender.String
		v.PollingStationID = stationID.Int64
		v.RawText = raw.String
		out = append(out, v)
	}
	return out, rows.Err()
}
