package analysis

import "context"

// Repository owns snapshots and the KPI/Trend/ActionItem rows of a report.
type Repository interface {
	// ReplaceAnalysis appends a snapshot plus all metric rows and flips the
	// report to analyzed, as a single transaction.
	ReplaceAnalysis(ctx context.Context, reportID int64, res Result, rawPayload []byte) (*Snapshot, error)
	GetAnalysis(ctx context.Context, reportID int64) (Result, error)
	ListSnapshots(ctx context.Context, reportID int64) ([]*Snapshot, error)
}
