package entity

import "time"

// PageLog is one append-only entry in extraction_logs. Multiple entries may
// exist for the same page number across runs.
type PageLog struct {
	ID            int64     `json:"id"`
	PageNumber    int       `json:"page_number"`
	Status        string    `json:"status"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	InsertedCount int       `json:"inserted_count"`
	SkippedCount  int       `json:"skipped_count"`
	ProcessedAt   time.Time `json:"processed_at"`
}
