// -----------------------------------------------------------------------
// Last Modified: Wednesday, 14th October 2026 9:20:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/murmur/internal/models"
)

// ErrNotFound is returned when a stored record does not exist
var ErrNotFound = errors.New("not found")

// RunStorage persists pipeline reports and mention snapshots
type RunStorage interface {
	// SaveReport inserts or replaces a report by run ID
	SaveReport(ctx context.Context, report *models.Report) error

	// GetReport retrieves a report, ErrNotFound if absent
	GetReport(ctx context.Context, runID string) (*models.Report, error)

	// ListReports returns the most recent reports first
	ListReports(ctx context.Context, limit int) ([]*models.Report, error)

	// SaveSnapshot records the mention counts of a run and marks it latest
	SaveSnapshot(ctx context.Context, snapshot *models.MentionSnapshot) error

	// LatestSnapshot returns the most recently saved snapshot, ErrNotFound if none
	LatestSnapshot(ctx context.Context) (*models.MentionSnapshot, error)
}

// StorageManager owns the storage backends
type StorageManager interface {
	RunStorage() RunStorage
	Close() error
}
