package dispatch

import (
	"context"
	"time"
)

// ReapIdle removes intake sessions idle for longer than Config.SessionTTL and tells their reporters. Returns the number
// of sessions removed.
func (d *Dispatcher) ReapIdle(ctx context.Context) int {
	d.lk.Lock()
	defer d.lk.Unlock()

	ttl := d.Config.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	reaped := d.Registry.Reap(d.now(), ttl)
	for _, r := range reaped {
		rec := r.Session.Record()
		d.logger().Info("reaped idle report session", "report", rec.ID, "key", r.Key, "state", rec.State)
		if rec.ReplyChannel != "" {
			d.send(ctx, rec.ReplyChannel, textExpired)
		}
	}
	sessionsReaped.Add(float64(len(reaped)))
	return len(reaped)
}

// RunReaper calls ReapIdle every interval until ctx is cancelled.
func (d *Dispatcher) RunReaper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.ReapIdle(ctx)
		}
	}
}
