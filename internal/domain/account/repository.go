package account

import (
	"context"
)

// Repository defines the operations for persisting accounts and their
// last-seen markers. Implementations must be safe for concurrent use: every
// watcher calls ListActive independently.
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	GetByChatID(ctx context.Context, chatID int64) (*Account, error)
	Update(ctx context.Context, acc *Account) error
	ListActive(ctx context.Context) ([]*Account, error)
	ListAll(ctx context.Context) ([]*Account, error)

	// Marker updates. Each writes a single field so concurrent watchers
	// never clobber each other's markers.
	SetLastMessageID(ctx context.Context, chatID int64, messageID string) error
	SetCourseSnapshot(ctx context.Context, chatID int64, snapshot string) error
	SetAverageSnapshot(ctx context.Context, chatID int64, snapshot string) error
}
