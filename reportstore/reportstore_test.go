package reportstore

import (
	"context"
	"testing"
	"time"

	"github.com/bluesky-social/warden/util/cliutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]ReportStore {
	db, err := cliutil.SetupDatabase("sqlite://:memory:", 1)
	require.NoError(t, err)
	gs, err := NewGormReportStore(db)
	require.NoError(t, err)
	return map[string]ReportStore{
		"gorm": gs,
		"mem":  NewMemReportStore(),
	}
}

func TestReportStoreBasics(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, rs := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			c, err := rs.CountPriorReports(ctx, "u-mallory")
			assert.NoError(err)
			assert.Equal(0, c)

			assert.NoError(rs.Save(ctx, &ArchivedReport{
				ReportID:       "r-1",
				ReporterID:     "u-alice",
				ReportedUserID: "u-mallory",
				Category:       "spam",
				Outcome:        "violation",
				OpenedAt:       now,
				ClosedAt:       now.Add(time.Hour),
			}))
			assert.NoError(rs.Save(ctx, &ArchivedReport{
				ReportID:       "r-2",
				ReportedUserID: "u-mallory",
				AutoFlagged:    true,
				ClosedAt:       now.Add(2 * time.Hour),
			}))
			assert.NoError(rs.Save(ctx, &ArchivedReport{
				ReportID:       "r-3",
				ReporterID:     "u-mallory",
				ReportedUserID: "u-bob",
				ClosedAt:       now.Add(3 * time.Hour),
			}))

			// counted by reported account, never by reporter
			c, err = rs.CountPriorReports(ctx, "u-mallory")
			assert.NoError(err)
			assert.Equal(2, c)
			c, err = rs.CountPriorReports(ctx, "u-alice")
			assert.NoError(err)
			assert.Equal(0, c)

			err = rs.Save(ctx, &ArchivedReport{ReportID: "r-1", ReportedUserID: "u-mallory"})
			assert.ErrorIs(err, ErrDuplicateReport)
			c, err = rs.CountPriorReports(ctx, "u-mallory")
			assert.NoError(err)
			assert.Equal(2, c)
		})
	}
}
