package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/terpspark/terpspark-api/internal/domain/common"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/logger"
)

// PostgresEventRepository implements EventRepository using GORM
type PostgresEventRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresEventRepository creates a new PostgreSQL event repository
func NewPostgresEventRepository(db *gorm.DB) *PostgresEventRepository {
	return &PostgresEventRepository{
		db:  db,
		log: logger.Repository("event"),
	}
}

func (r *PostgresEventRepository) Create(ev *event.Event) error {
	r.log.Debug("creating event", "event_id", ev.ID, "title", ev.Title)

	if err := ev.Validate(); err != nil {
		return common.Validation("invalid event: %v", err)
	}

	if err := r.db.Create(ev).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	r.log.Info("event created", "event_id", ev.ID, "title", ev.Title)
	return nil
}

func (r *PostgresEventRepository) GetByID(id string) (*event.Event, error) {
	var ev event.Event
	if err := r.db.First(&ev, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound("event not found")
		}
		return nil, fmt.Errorf("failed to retrieve event: %w", err)
	}
	return &ev, nil
}

func (r *PostgresEventRepository) GetAllPublished() ([]*event.Event, error) {
	var events []*event.Event
	if err := r.db.Where("status = ?", event.StatusPublished).
		Order("date ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve published events: %w", err)
	}
	return events, nil
}

func (r *PostgresEventRepository) Update(ev *event.Event) error {
	if err := r.db.Save(ev).Error; err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// AdjustCounters applies the deltas under the event's row lock so the
// ledger never observes a torn update. Both counters are clamped at zero.
func (r *PostgresEventRepository) AdjustCounters(eventID string, registeredDelta, waitlistDelta int) error {
	r.log.Debug("adjusting counters", "event_id", eventID, "registered_delta", registeredDelta, "waitlist_delta", waitlistDelta)

	return r.db.Transaction(func(tx *gorm.DB) error {
		var ev event.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ev, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFound("event not found")
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		updates := map[string]any{
			"registered_count": gorm.Expr("GREATEST(registered_count + ?, 0)", registeredDelta),
			"waitlist_count":   gorm.Expr("GREATEST(waitlist_count + ?, 0)", waitlistDelta),
		}
		if err := tx.Model(&event.Event{}).Where("id = ?", eventID).
			UpdateColumns(updates).Error; err != nil {
			return fmt.Errorf("adjust counters: %w", err)
		}
		return nil
	})
}
