// Rolling counters for moderation signals: auto-flags per author, and distinct reporters per reported account.
//
// Each increment updates a total, a per-day, and a per-hour bucket. Redis and in-process implementations are provided.
package countstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	PeriodTotal = "total"
	PeriodDay   = "day"
	PeriodHour  = "hour"
)

// Counter names used by the dispatcher.
const (
	CounterAutoFlag  = "autoflag"
	CounterReporters = "reporters"
)

type CountStore interface {
	GetCount(ctx context.Context, name, val, period string) (int, error)
	Increment(ctx context.Context, name, val string) error
	GetCountDistinct(ctx context.Context, name, bucket, period string) (int, error)
	IncrementDistinct(ctx context.Context, name, bucket, val string) error
}

var allPeriods = []string{PeriodTotal, PeriodDay, PeriodHour}

func periodBucket(name, val, period string, now time.Time) string {
	switch period {
	case PeriodTotal:
		return fmt.Sprintf("%s/%s", name, val)
	case PeriodDay:
		return fmt.Sprintf("%s/%s/%s", name, val, now.UTC().Format(time.DateOnly))
	case PeriodHour:
		return fmt.Sprintf("%s/%s/%s", name, val, now.UTC().Format("2006-01-02T15"))
	default:
		slog.Warn("unhandled counter period", "period", period)
		return fmt.Sprintf("%s/%s", name, val)
	}
}
