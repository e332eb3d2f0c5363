package constants

// PageStatus is the canonical status for rows in extraction_logs.
type PageStatus string

// Stable values (store these exact strings in DB).
const (
	PageStatusCompleted PageStatus = "COMPLETED" // insert attempts for the page finished
	PageStatusFailed    PageStatus = "FAILED"    // terminal failure for the page
)

// RelationType values the extractor is asked to produce.
const (
	RelationFather  = "Father"
	RelationMother  = "Mother"
	RelationHusband = "Husband"
	RelationUnknown = "unknown"
)
