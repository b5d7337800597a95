// Persistent string flags attached to a key.
//
// The dispatcher uses this to remember which channels already have an open auto-flag review, so one burst of
// abusive traffic produces a single moderator review instead of one per message.
package flagstore

import (
	"context"
)

// FlagAutoFlagged marks a channel whose traffic already triggered an auto-flag review.
const FlagAutoFlagged = "auto-flagged"

type FlagStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	Add(ctx context.Context, key string, flags []string) error
	Remove(ctx context.Context, key string, flags []string) error
}

// Has reports whether flag is currently set on key.
func Has(ctx context.Context, fs FlagStore, key, flag string) (bool, error) {
	flags, err := fs.Get(ctx, key)
	if err != nil {
		return false, err
	}
	for _, f := range flags {
		if f == flag {
			return true, nil
		}
	}
	return false, nil
}
