package reportstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormReportStore keeps the archive in a SQL database (sqlite or postgres).
type GormReportStore struct {
	db *gorm.DB
}

var _ ReportStore = (*GormReportStore)(nil)

var ErrDuplicateReport = errors.New("report already archived")

func NewGormReportStore(db *gorm.DB) (*GormReportStore, error) {
	if err := db.AutoMigrate(&ArchivedReport{}); err != nil {
		return nil, fmt.Errorf("migrating report archive: %w", err)
	}
	return &GormReportStore{db: db}, nil
}

func (s *GormReportStore) CountPriorReports(ctx context.Context, reportedUserID string) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&ArchivedReport{}).Where("reported_user_id = ?", reportedUserID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *GormReportStore) Save(ctx context.Context, report *ArchivedReport) error {
	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReport
		}
		return err
	}
	return nil
}
