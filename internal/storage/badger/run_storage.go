package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/murmur/internal/interfaces"
	"github.com/ternarybob/murmur/internal/models"
)

// latestSnapshotKey holds the run ID of the most recent snapshot. It sits
// outside the badgerhold type prefixes.
var latestSnapshotKey = []byte("murmur:snapshot:latest")

// RunStorage implements the RunStorage interface for Badger
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

// SaveReport inserts or replaces a report by run ID
func (s *RunStorage) SaveReport(ctx context.Context, report *models.Report) error {
	if report.RunID == "" {
		return fmt.Errorf("report run ID is required")
	}
	if err := s.db.Store().Upsert(report.RunID, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport retrieves a report by run ID
func (s *RunStorage) GetReport(ctx context.Context, runID string) (*models.Report, error) {
	var report models.Report
	err := s.db.Store().Get(runID, &report)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("report %s: %w", runID, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// ListReports returns reports newest first. limit <= 0 returns all.
func (s *RunStorage) ListReports(ctx context.Context, limit int) ([]*models.Report, error) {
	query := (&badgerhold.Query{}).SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []models.Report
	if err := s.db.Store().Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	result := make([]*models.Report, len(reports))
	for i := range reports {
		result[i] = &reports[i]
	}
	return result, nil
}

// SaveSnapshot stores a snapshot and moves the latest pointer to it in
// one transaction
func (s *RunStorage) SaveSnapshot(ctx context.Context, snapshot *models.MentionSnapshot) error {
	if snapshot.RunID == "" {
		return fmt.Errorf("snapshot run ID is required")
	}

	err := s.db.Store().Badger().Update(func(txn *badger.Txn) error {
		if err := s.db.Store().TxUpsert(txn, snapshot.RunID, snapshot); err != nil {
			return err
		}
		return txn.Set(latestSnapshotKey, []byte(snapshot.RunID))
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Debug().
		Str("run_id", snapshot.RunID).
		Int("entities", len(snapshot.Mentions)).
		Msg("Mention snapshot saved")
	return nil
}

// LatestSnapshot returns the most recently saved snapshot
func (s *RunStorage) LatestSnapshot(ctx context.Context) (*models.MentionSnapshot, error) {
	var snapshot models.MentionSnapshot

	err := s.db.Store().Badger().View(func(txn *badger.Txn) error {
		item, err := txn.Get(latestSnapshotKey)
		if err != nil {
			return err
		}
		runID, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return s.db.Store().TxGet(txn, string(runID), &snapshot)
	})
	if errors.Is(err, badger.ErrKeyNotFound) || errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return &snapshot, nil
}
