package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/terpspark/terpspark-api/internal/domain/common"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/domain/waitlist"
	"github.com/terpspark/terpspark-api/internal/logger"
)

// PostgresWaitlistRepository implements WaitlistRepository using GORM
type PostgresWaitlistRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresWaitlistRepository creates a new PostgreSQL waitlist repository
func NewPostgresWaitlistRepository(db *gorm.DB) *PostgresWaitlistRepository {
	return &PostgresWaitlistRepository{
		db:  db,
		log: logger.Repository("waitlist"),
	}
}

// JoinIfFull assigns max(position)+1 and inserts the entry while holding
// the event row lock, so two concurrent joins cannot receive the same
// position and a join cannot race a cancellation that frees a seat.
func (r *PostgresWaitlistRepository) JoinIfFull(entry *waitlist.Entry) error {
	r.log.Debug("joining waitlist", "entry_id", entry.ID, "event_id", entry.EventID, "user_id", entry.UserID)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ev event.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ev, "id = ?", entry.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFound("event not found")
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		if !ev.IsFull() {
			return common.InvalidState("event has available spots, register instead")
		}

		var maxPosition int
		if err := tx.Model(&waitlist.Entry{}).Where("event_id = ?", entry.EventID).
			Select("COALESCE(MAX(position), 0)").Scan(&maxPosition).Error; err != nil {
			return fmt.Errorf("find max position: %w", err)
		}
		entry.Position = maxPosition + 1

		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("insert waitlist entry: %w", err)
		}

		if err := tx.Model(&event.Event{}).Where("id = ?", ev.ID).
			UpdateColumn("waitlist_count", gorm.Expr("waitlist_count + 1")).Error; err != nil {
			return fmt.Errorf("increment waitlist_count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info("waitlist entry created", "entry_id", entry.ID, "event_id", entry.EventID, "position", entry.Position)
	return nil
}

// Remove hard-deletes the entry and renumbers everything behind it so the
// event's positions stay a contiguous 1..N sequence.
func (r *PostgresWaitlistRepository) Remove(entry *waitlist.Entry) error {
	r.log.Debug("removing waitlist entry", "entry_id", entry.ID, "event_id", entry.EventID, "position", entry.Position)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ev event.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ev, "id = ?", entry.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFound("event not found")
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		result := tx.Delete(&waitlist.Entry{}, "id = ?", entry.ID)
		if result.Error != nil {
			return fmt.Errorf("delete waitlist entry: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return common.NotFound("waitlist entry not found")
		}

		if err := tx.Model(&waitlist.Entry{}).
			Where("event_id = ? AND position > ?", entry.EventID, entry.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error; err != nil {
			return fmt.Errorf("renumber positions: %w", err)
		}

		if err := tx.Model(&event.Event{}).Where("id = ?", ev.ID).
			UpdateColumn("waitlist_count", gorm.Expr("GREATEST(waitlist_count - 1, 0)")).Error; err != nil {
			return fmt.Errorf("decrement waitlist_count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info("waitlist entry removed", "entry_id", entry.ID, "event_id", entry.EventID)
	return nil
}

func (r *PostgresWaitlistRepository) GetByID(id string) (*waitlist.Entry, error) {
	var entry waitlist.Entry
	if err := r.db.First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound("waitlist entry not found")
		}
		return nil, fmt.Errorf("failed to retrieve waitlist entry: %w", err)
	}
	return &entry, nil
}

// GetByUserAndEvent returns the user's entry for the event, or (nil, nil)
// when none exists.
func (r *PostgresWaitlistRepository) GetByUserAndEvent(userID, eventID string) (*waitlist.Entry, error) {
	var entry waitlist.Entry
	err := r.db.Where("user_id = ? AND event_id = ?", userID, eventID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve waitlist entry: %w", err)
	}
	return &entry, nil
}

func (r *PostgresWaitlistRepository) GetUserEntries(userID string) ([]*waitlist.Entry, error) {
	var entries []*waitlist.Entry
	if err := r.db.Where("user_id = ?", userID).
		Order("joined_at ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve user waitlist entries: %w", err)
	}
	return entries, nil
}

func (r *PostgresWaitlistRepository) GetEventWaitlist(eventID string) ([]*waitlist.Entry, error) {
	var entries []*waitlist.Entry
	if err := r.db.Where("event_id = ?", eventID).
		Order("position ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve event waitlist: %w", err)
	}
	return entries, nil
}

func (r *PostgresWaitlistRepository) PeekFirst(eventID string) (*waitlist.Entry, error) {
	var entry waitlist.Entry
	err := r.db.Where("event_id = ?", eventID).Order("position ASC").First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to peek waitlist: %w", err)
	}
	return &entry, nil
}
