// Package store persists finalized interview reports.
package store

import (
	"context"
	"errors"

	"github.com/ashureev/interview-labs/internal/domain"
)

// ErrNotFound is returned when a report id does not exist.
var ErrNotFound = errors.New("report not found")

// ReportStore is an append-only store of finished scorecards.
// Implementations must be safe for concurrent use.
type ReportStore interface {
	// AppendReport persists a scorecard and returns it with its assigned id.
	// The record is durable when AppendReport returns.
	AppendReport(ctx context.Context, card domain.Scorecard) (*domain.StoredReport, error)

	// GetReport retrieves a report by id.
	GetReport(ctx context.Context, id int64) (*domain.StoredReport, error)

	// ListReports returns the most recent reports, newest first.
	ListReports(ctx context.Context, limit int) ([]*domain.StoredReport, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
