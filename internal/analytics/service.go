package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/viviztech/voterapp/internal/store"
)

// Service is a tiny façade over the store that produces roll summaries and
// XLSX exports. Reporting only; it never writes pipeline tables.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

func NewService(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// Summarize returns aggregate statistics over the extracted roll.
func (s *Service) Summarize(ctx context.Context) (*store.RollSummary, error) {
	return s.store.Summarize(ctx)
}

// ExportVotersXLSX returns an XLSX workbook (as bytes) containing the full
// voter roll ordered by insertion.
func (s *Service) ExportVotersXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	voters, err := s.store.AllVoters(ctx)
	if err != nil {
		return nil, fmt.Errorf("query voters: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Voters"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"EPIC Number",
		"Name",
		"Relation Type",
		"Relation Name",
		"House Number",
		"Age",
		"Gender",
		"Polling Station",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, v := range voters {
		values := []any{
			v.EpicNumber,
			v.Name,
			v.RelationType,
			v.RelationName,
			v.HouseNumber,
			v.Age,
			v.Gender,
			v.PollingStationID,
		}
		for i, val := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, val)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("voters exported",
		"rows", len(voters),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
