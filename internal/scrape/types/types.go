package types

import "context"

// Tech park tags, one per source.
const (
	ParkInfopark    = "Infopark"
	ParkTechnopark  = "Technopark"
	ParkCyberpark   = "Cyberpark"
	ParkULCyberpark = "UL Cyberpark"
)

// Posting is one job listing as produced by an adapter. Adapters fill the
// raw fields; the pipeline derives Deadline and Status and cleans up text
// before the posting reaches a store.
type Posting struct {
	Company        string
	Role           string
	DeadlineRaw    string
	Deadline       string
	Link           string
	TechPark       string
	Description    string
	CompanyProfile string
	Email          string
	Status         string
}

// Enrichment is what a detail/profile fetch adds on top of a listing row.
// The zero value means "enrichment unavailable".
type Enrichment struct {
	Description    string
	CompanyProfile string
	Email          string
}

// Fetcher is the single capability all four source adapters implement.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]Posting, error)
}
