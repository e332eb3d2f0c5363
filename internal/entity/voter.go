package entity

// VoterRecord represents one extracted voter row for data transfer between layers.
// RawText holds the verbatim JSON mapping the record was coerced from, for audit.
type VoterRecord struct {
	ID               int64  `json:"id"`
	EpicNumber       string `json:"epic_number"`
	Name             string `json:"name"`
	RelationType     string `json:"relation_type"`
	RelationName     string `json:"relation_name"`
	HouseNumber      string `json:"house_number"`
	Age              int    `json:"age"`
	Gender           string `json:"gender"`
	PollingStationID int64  `json:"polling_station_id"`
	RawText          string `json:"raw_text"`
}

// PollingStation represents a physical booth. Booth metadata is optional and is
// not populated by the extraction pipeline itself.
type PollingStation struct {
	ID                   int64   `json:"id"`
	BoothNo              *string `json:"booth_no,omitempty"`
	PartNo               *string `json:"part_no,omitempty"`
	SectionNo            *string `json:"section_no,omitempty"`
	LocationName         *string `json:"location_name,omitempty"`
	AssemblyConstituency *string `json:"assembly_constituency,omitempty"`
}
