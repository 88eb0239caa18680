package waitlist

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a user's place in an event's FIFO waitlist. Positions are
// 1-based and contiguous per event: removing an entry renumbers everything
// behind it down by one. Entries are hard-deleted on leave or promotion.
type Entry struct {
	ID      string `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID  string `json:"user_id" gorm:"type:varchar(36);not null;index"`
	EventID string `json:"event_id" gorm:"type:varchar(36);not null;index"`

	Position int `json:"position" gorm:"not null;index"`

	NotificationPreference NotificationPreference `json:"notification_preference" gorm:"size:10;not null;default:'email'"`

	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (Entry) TableName() string {
	return "waitlist"
}

// NewEntry creates a waitlist entry without a position; the repository
// assigns the position under the event lock when persisting it.
func NewEntry(userID, eventID string, pref NotificationPreference) *Entry {
	if pref == "" {
		pref = NotifyEmail
	}
	return &Entry{
		ID:                     uuid.New().String(),
		UserID:                 userID,
		EventID:                eventID,
		NotificationPreference: pref,
		JoinedAt:               time.Now(),
	}
}

// NotificationPreference selects how the user wants waitlist updates
type NotificationPreference string

const (
	NotifyEmail NotificationPreference = "email"
	NotifySMS   NotificationPreference = "sms"
	NotifyBoth  NotificationPreference = "both"
)

// Valid reports whether the preference is one of the known values.
func (p NotificationPreference) Valid() bool {
	switch p {
	case NotifyEmail, NotifySMS, NotifyBoth:
		return true
	}
	return false
}
