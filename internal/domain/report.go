package domain

import "time"

// ReportKind names an export family; it is also the storage folder.
type ReportKind string

const (
	ReportTopSellers   ReportKind = "top-sellers"
	ReportTransactions ReportKind = "transactions"
)

// TopSellersReport is the snapshot written by a top-sellers export.
type TopSellersReport struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Ranking     TopSellers `json:"ranking"`
	Overview    Overview   `json:"overview"`
}

// ExportResult describes one written export object.
type ExportResult struct {
	Kind    ReportKind `json:"kind"`
	Path    string     `json:"path"`
	Records int        `json:"records"`
	// Degraded is set when the snapshot was built without the transaction
	// source.
	Degraded bool `json:"degraded,omitempty"`
}
