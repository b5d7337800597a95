// Historical archive of moderated reports.
//
// Reports are saved once, when moderator review closes. The archive answers how many reports an account has
// accumulated, which moderators see before deciding on enforcement.
package reportstore

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ReportStore interface {
	CountPriorReports(ctx context.Context, reportedUserID string) (int, error)
	Save(ctx context.Context, report *ArchivedReport) error
}

type ArchivedReport struct {
	gorm.Model
	ReportID       string `gorm:"uniqueIndex;not null"`
	ReporterID     string `gorm:"index"`
	ReportedUserID string `gorm:"index;not null"`
	Category       string
	DangerSubtype  string
	AIVerdict      string
	Outcome        string
	AutoFlagged    bool
	BlockRequested bool
	MessageCount   int
	FlaggedText    string
	OpenedAt       time.Time
	ClosedAt       time.Time `gorm:"index"`
}
