package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action identifies what happened. The set mirrors the state-changing
// operations of the registration and waitlist flows.
type Action string

const (
	ActionRegistrationCreated   Action = "REGISTRATION_CREATED"
	ActionRegistrationCancelled Action = "REGISTRATION_CANCELLED"
	ActionRegistrationCheckedIn Action = "REGISTRATION_CHECKED_IN"
	ActionWaitlistJoined        Action = "WAITLIST_JOINED"
	ActionWaitlistLeft          Action = "WAITLIST_LEFT"
	ActionWaitlistPromoted      Action = "WAITLIST_PROMOTED"
	ActionEventCreated          Action = "EVENT_CREATED"
	ActionEventCancelled        Action = "EVENT_CANCELLED"
)

// TargetType identifies the kind of resource an action touched
type TargetType string

const (
	TargetRegistration TargetType = "registration"
	TargetWaitlist     TargetType = "waitlist"
	TargetEvent        TargetType = "event"
)

// Record is one append-only audit trail row. Writing records is
// best-effort: a failed write is logged, never surfaced to the caller.
type Record struct {
	ID string `json:"id" gorm:"type:varchar(36);primaryKey"`

	Action    Action `json:"action" gorm:"size:50;not null;index"`
	ActorID   string `json:"actor_id" gorm:"type:varchar(36);not null;index"`
	ActorName string `json:"actor_name" gorm:"size:100;not null"`
	ActorRole string `json:"actor_role" gorm:"size:20;not null"`

	TargetType TargetType `json:"target_type" gorm:"size:20;not null"`
	TargetID   string     `json:"target_id" gorm:"type:varchar(36);not null;index"`
	TargetName string     `json:"target_name" gorm:"size:200"`

	Details  string   `json:"details" gorm:"type:text"`
	Metadata Metadata `json:"metadata,omitempty" gorm:"type:json"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName overrides the table name used by GORM
func (Record) TableName() string {
	return "audit_logs"
}

// NewRecord creates an audit record ready to persist
func NewRecord(action Action, actorID, actorName, actorRole string, targetType TargetType, targetID, targetName, details string, metadata Metadata) *Record {
	return &Record{
		ID:         uuid.New().String(),
		Action:     action,
		ActorID:    actorID,
		ActorName:  actorName,
		ActorRole:  actorRole,
		TargetType: targetType,
		TargetID:   targetID,
		TargetName: targetName,
		Details:    details,
		Metadata:   metadata,
		CreatedAt:  time.Now(),
	}
}

// Metadata holds free-form structured context as a JSON column.
type Metadata map[string]any

// Scan implements the sql.Scanner interface
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", value)
	}
	return json.Unmarshal(raw, m)
}

// Value implements the driver.Valuer interface
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
