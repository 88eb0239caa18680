package registration

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxGuests is the default cap on guests per registration. The effective
// limit is configurable; this is the value the campus policy prescribes.
const MaxGuests = 2

// Registration binds a user to an event. Registrations are soft-deleted:
// cancellation flips the status and stamps CancelledAt, the row stays.
type Registration struct {
	ID      string `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID  string `json:"user_id" gorm:"type:varchar(36);not null;index"`
	EventID string `json:"event_id" gorm:"type:varchar(36);not null;index"`

	Status Status `json:"status" gorm:"type:varchar(20);not null;default:'confirmed';index"`

	TicketCode string `json:"ticket_code" gorm:"size:100;not null;uniqueIndex"`
	QRPayload  string `json:"qr_payload,omitempty" gorm:"type:text"`

	CheckInStatus CheckInStatus `json:"check_in_status" gorm:"type:varchar(20);not null;default:'not_checked_in'"`
	CheckedInAt   *time.Time    `json:"checked_in_at,omitempty"`

	Guests   GuestList  `json:"guests" gorm:"type:json"`
	Sessions SessionIDs `json:"sessions" gorm:"type:json"`

	ReminderSent bool       `json:"reminder_sent" gorm:"not null;default:false"`
	RegisteredAt time.Time  `json:"registered_at" gorm:"autoCreateTime"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
}

// TableName overrides the table name used by GORM
func (Registration) TableName() string {
	return "registrations"
}

// New creates a confirmed registration
func New(userID, eventID, ticketCode, qrPayload string, guests []Guest, sessions []string) *Registration {
	return &Registration{
		ID:            uuid.New().String(),
		UserID:        userID,
		EventID:       eventID,
		Status:        StatusConfirmed,
		TicketCode:    ticketCode,
		QRPayload:     qrPayload,
		CheckInStatus: CheckInNotCheckedIn,
		Guests:        guests,
		Sessions:      sessions,
		RegisteredAt:  time.Now(),
	}
}

// SeatCount returns the number of seats this registration occupies.
func (r *Registration) SeatCount() int {
	return 1 + len(r.Guests)
}

// IsCancelled reports whether the registration has been cancelled.
func (r *Registration) IsCancelled() bool {
	return r.Status == StatusCancelled
}

// IsCheckedIn reports whether the attendee has been checked in.
func (r *Registration) IsCheckedIn() bool {
	return r.CheckInStatus == CheckInCheckedIn
}

// Guest is an additional attendee brought by the registering user.
type Guest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GuestList stores guests as a JSON column.
type GuestList []Guest

// Scan implements the sql.Scanner interface
func (g *GuestList) Scan(value interface{}) error {
	if value == nil {
		*g = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into GuestList", value)
	}
	return json.Unmarshal(raw, g)
}

// Value implements the driver.Valuer interface
func (g GuestList) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Emails returns the lower-cased guest emails in order.
func (g GuestList) Emails() []string {
	emails := make([]string, len(g))
	for i, guest := range g {
		emails[i] = strings.ToLower(guest.Email)
	}
	return emails
}

// SessionIDs stores the selected session IDs as a JSON column.
type SessionIDs []string

// Scan implements the sql.Scanner interface
func (s *SessionIDs) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SessionIDs", value)
	}
	return json.Unmarshal(raw, s)
}

// Value implements the driver.Valuer interface
func (s SessionIDs) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Status represents the registration lifecycle
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// StatusFromString converts a filter string to a Status; "all" and unknown
// values yield ok=false, meaning no status filter.
func StatusFromString(s string) (Status, bool) {
	switch s {
	case "confirmed":
		return StatusConfirmed, true
	case "cancelled":
		return StatusCancelled, true
	default:
		return "", false
	}
}

// CheckInStatus tracks event-day attendance
type CheckInStatus string

const (
	CheckInNotCheckedIn CheckInStatus = "not_checked_in"
	CheckInCheckedIn    CheckInStatus = "checked_in"
)
