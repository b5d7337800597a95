// Out-of-band notifications for the moderation team (auto-flags, archive failures).
package notify

import (
	"context"
	"log/slog"
)

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// LogNotifier writes notifications to the structured log. Used when no webhook is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, text string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("moderation notification", "text", text)
	return nil
}
