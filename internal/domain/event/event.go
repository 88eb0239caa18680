package event

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Capacity limits enforced when organizers create or edit events.
const (
	MinCapacity = 1
	MaxCapacity = 5000
)

// Event represents a campus event with its capacity ledger. The triple
// (Capacity, RegisteredCount, WaitlistCount) is only ever mutated through
// repository operations that hold the event's row lock, so that
// RegisteredCount never exceeds Capacity on a committed row.
type Event struct {
	ID          string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title       string `json:"title" gorm:"size:200;not null"`
	Description string `json:"description" gorm:"type:text;not null"`
	OrganizerID string `json:"organizer_id" gorm:"type:varchar(36);not null;index"`

	Date      time.Time `json:"date" gorm:"type:date;not null;index"`
	StartTime string    `json:"start_time" gorm:"size:5;not null"`
	EndTime   string    `json:"end_time" gorm:"size:5;not null"`

	Venue    string `json:"venue" gorm:"size:200;not null"`
	Location string `json:"location" gorm:"size:500;not null"`

	Capacity        int `json:"capacity" gorm:"not null"`
	RegisteredCount int `json:"registered_count" gorm:"not null;default:0"`
	WaitlistCount   int `json:"waitlist_count" gorm:"not null;default:0"`

	Status Status `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	ImageURL string         `json:"image_url,omitempty" gorm:"size:500"`
	Tags     pq.StringArray `json:"tags,omitempty" gorm:"type:text[]"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// TableName overrides the table name used by GORM
func (Event) TableName() string {
	return "events"
}

// New creates a new event in pending status
func New(title, description, organizerID string, date time.Time, capacity int) *Event {
	return &Event{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		OrganizerID: organizerID,
		Date:        date,
		Capacity:    capacity,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}
}

// Validate checks if the event data is valid
func (e *Event) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if e.OrganizerID == "" {
		return fmt.Errorf("organizer_id is required")
	}
	if e.Capacity < MinCapacity || e.Capacity > MaxCapacity {
		return fmt.Errorf("capacity must be between %d and %d", MinCapacity, MaxCapacity)
	}
	return nil
}

// RemainingCapacity returns the number of unclaimed seats.
func (e *Event) RemainingCapacity() int {
	remaining := e.Capacity - e.RegisteredCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFull reports whether every seat is claimed.
func (e *Event) IsFull() bool {
	return e.RegisteredCount >= e.Capacity
}

// IsPast reports whether the event date has already passed relative to now.
// Events on the current date are still open for registration.
func (e *Event) IsPast(now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return e.Date.Before(today)
}

// Status represents the lifecycle status of an event
type Status byte

const (
	StatusDraft Status = iota
	StatusPending
	StatusPublished
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusPending:
		return "pending"
	case StatusPublished:
		return "published"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaler interface
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (s *Status) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	status, valid := StatusFromString(str)
	if !valid {
		return fmt.Errorf("invalid status: %s", str)
	}
	*s = status
	return nil
}

// StatusFromString converts a string to a Status
func StatusFromString(s string) (Status, bool) {
	switch s {
	case "draft":
		return StatusDraft, true
	case "pending":
		return StatusPending, true
	case "published":
		return StatusPublished, true
	case "cancelled":
		return StatusCancelled, true
	default:
		return StatusDraft, false
	}
}

// Scan implements the sql.Scanner interface for database deserialization
func (s *Status) Scan(value interface{}) error {
	if value == nil {
		*s = StatusPending
		return nil
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Status", value)
	}

	status, valid := StatusFromString(str)
	if !valid {
		return fmt.Errorf("invalid status value: %s", str)
	}
	*s = status
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}
