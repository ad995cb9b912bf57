package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/zennieheo/hackathon2024-BE/models"
)

// SnapshotStore persists report snapshots and the worker's activity log.
type SnapshotStore interface {
	SaveReport(ctx context.Context, report models.IntakeReport) error
	FindReport(ctx context.Context, owner, date string) (*models.IntakeReport, error)
	InsertActivityLog(ctx context.Context, entry models.ActivityLog) error
}

type GormSnapshotStore struct {
	db *gorm.DB
}

func NewGormSnapshotStore(db *gorm.DB) *GormSnapshotStore {
	return &GormSnapshotStore{db: db}
}

// SaveReport inserts the snapshot, or replaces its data when (owner, date) exists.
func (s *GormSnapshotStore) SaveReport(ctx context.Context, report models.IntakeReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var existing models.IntakeReport
	err := s.db.Where(models.IntakeReport{OwnerID: report.OwnerID, Date: report.Date}).First(&existing).Error
	if gorm.IsRecordNotFoundError(err) {
		if err := s.db.Create(&report).Error; err != nil {
			return fmt.Errorf("create intake report: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("find intake report: %w", err)
	}

	if err := s.db.Model(&existing).Updates(map[string]interface{}{
		"data":       report.Data,
		"updated_at": report.UpdatedAt,
	}).Error; err != nil {
		return fmt.Errorf("update intake report: %w", err)
	}
	return nil
}

func (s *GormSnapshotStore) FindReport(ctx context.Context, owner, date string) (*models.IntakeReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var report models.IntakeReport
	err := s.db.Where(models.IntakeReport{OwnerID: owner, Date: date}).First(&report).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find intake report: %w", err)
	}
	return &report, nil
}

func (s *GormSnapshotStore) InsertActivityLog(ctx context.Context, entry models.ActivityLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

type MemorySnapshotStore struct {
	mu       sync.Mutex
	reports  map[string]models.IntakeReport
	activity []models.ActivityLog
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{reports: make(map[string]models.IntakeReport)}
}

func reportKey(owner, date string) string {
	return owner + "|" + date
}

func (m *MemorySnapshotStore) SaveReport(ctx context.Context, report models.IntakeReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := reportKey(report.OwnerID, report.Date)
	if existing, ok := m.reports[key]; ok {
		existing.Data = report.Data
		existing.UpdatedAt = report.UpdatedAt
		m.reports[key] = existing
		return nil
	}
	report.ID = int64(len(m.reports) + 1)
	m.reports[key] = report
	return nil
}

func (m *MemorySnapshotStore) FindReport(ctx context.Context, owner, date string) (*models.IntakeReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	report, ok := m.reports[reportKey(owner, date)]
	if !ok {
		return nil, nil
	}
	return &report, nil
}

func (m *MemorySnapshotStore) InsertActivityLog(ctx context.Context, entry models.ActivityLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.ID = int64(len(m.activity) + 1)
	if entry.CreatedAt == nil {
		now := time.Now()
		entry.CreatedAt = &now
	}
	m.activity = append(m.activity, entry)
	return nil
}

// ActivityLogs returns a copy of the recorded activity rows.
func (m *MemorySnapshotStore) ActivityLogs() []models.ActivityLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ActivityLog(nil), m.activity...)
}
