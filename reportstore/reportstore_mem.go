package reportstore

import (
	"context"
	"sync"
)

type MemReportStore struct {
	lk      sync.Mutex
	reports []ArchivedReport
	ids     map[string]bool
}

var _ ReportStore = (*MemReportStore)(nil)

func NewMemReportStore() *MemReportStore {
	return &MemReportStore{
		ids: make(map[string]bool),
	}
}

func (s *MemReportStore) CountPriorReports(ctx context.Context, reportedUserID string) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	n := 0
	for _, r := range s.reports {
		if r.ReportedUserID == reportedUserID {
			n++
		}
	}
	return n, nil
}

func (s *MemReportStore) Save(ctx context.Context, report *ArchivedReport) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	if s.ids[report.ReportID] {
		return ErrDuplicateReport
	}
	s.ids[report.ReportID] = true
	report.ID = uint(len(s.reports) + 1)
	s.reports = append(s.reports, *report)
	return nil
}

// Reports returns a copy of everything saved so far, in save order.
func (s *MemReportStore) Reports() []ArchivedReport {
	s.lk.Lock()
	defer s.lk.Unlock()
	return append([]ArchivedReport(nil), s.reports...)
}
