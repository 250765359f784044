package account

import (
	"database/sql"
	"time"

	"qou_notification_bot/internal/domain/portal"
)

// Account binds one Telegram chat to one portal login. The three markers are
// the last-observed values the watchers diff against; the engine updates them
// after a successful fetch cycle and never deletes the account itself.
type Account struct {
	ChatID         int64
	PortalID       string
	PortalPassword string
	// LastMessageID is the id of the newest inbox message already announced.
	LastMessageID sql.NullString
	// CourseSnapshot is the JSON-serialized course list of the previous
	// cycle. The engine owns the (de)serialization; the store treats it as
	// an opaque blob.
	CourseSnapshot sql.NullString
	// AverageSnapshot is the JSON-serialized term/cumulative average pair.
	AverageSnapshot sql.NullString
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a *Account) Credentials() portal.Credentials {
	return portal.Credentials{UserID: a.PortalID, Password: a.PortalPassword}
}
