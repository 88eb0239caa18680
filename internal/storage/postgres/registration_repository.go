package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/terpspark/terpspark-api/internal/domain/common"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/domain/registration"
	"github.com/terpspark/terpspark-api/internal/logger"
)

// PostgresRegistrationRepository implements RegistrationRepository using GORM
type PostgresRegistrationRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresRegistrationRepository creates a new PostgreSQL registration repository
func NewPostgresRegistrationRepository(db *gorm.DB) *PostgresRegistrationRepository {
	return &PostgresRegistrationRepository{
		db:  db,
		log: logger.Repository("registration"),
	}
}

// CreateWithinCapacity is the registration critical section. The event row
// is locked FOR UPDATE for the duration of the capacity check, the insert
// and the counter increment, so two concurrent requests cannot both pass
// the check against the same remaining seats.
func (r *PostgresRegistrationRepository) CreateWithinCapacity(reg *registration.Registration, seats int) error {
	r.log.Debug("creating registration", "registration_id", reg.ID, "event_id", reg.EventID, "seats", seats)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ev event.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ev, "id = ?", reg.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFound("event not found")
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		remaining := ev.Capacity - ev.RegisteredCount
		if remaining < seats {
			if remaining <= 0 {
				return common.ConflictWithHint(common.HintJoinWaitlist,
					"event is full, please join the waitlist instead")
			}
			return common.Conflict(
				"insufficient capacity: only %d spot(s) remaining, but you need %d (including guests)",
				remaining, seats)
		}

		if err := tx.Create(reg).Error; err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}

		if err := tx.Model(&event.Event{}).Where("id = ?", ev.ID).
			UpdateColumn("registered_count", gorm.Expr("registered_count + ?", seats)).Error; err != nil {
			return fmt.Errorf("increment registered_count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info("registration created", "registration_id", reg.ID, "event_id", reg.EventID, "ticket_code", reg.TicketCode)
	return nil
}

// Cancel soft-deletes the registration and frees its seats in one
// transaction. The status guard is part of the update predicate, so of two
// concurrent cancels only one flips the row and decrements the counter;
// the loser sees zero rows affected and fails with InvalidState. The
// decrement is clamped at zero.
func (r *PostgresRegistrationRepository) Cancel(reg *registration.Registration, freedSeats int) error {
	r.log.Debug("cancelling registration", "registration_id", reg.ID, "freed_seats", freedSeats)

	now := time.Now()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&registration.Registration{}).
			Where("id = ? AND status = ?", reg.ID, registration.StatusConfirmed).
			Updates(map[string]any{
				"status":       registration.StatusCancelled,
				"cancelled_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("mark registration cancelled: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return common.InvalidState("registration is already cancelled")
		}

		if err := tx.Model(&event.Event{}).Where("id = ?", reg.EventID).
			UpdateColumn("registered_count", gorm.Expr("GREATEST(registered_count - ?, 0)", freedSeats)).Error; err != nil {
			return fmt.Errorf("decrement registered_count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	reg.Status = registration.StatusCancelled
	reg.CancelledAt = &now

	r.log.Info("registration cancelled", "registration_id", reg.ID, "event_id", reg.EventID)
	return nil
}

// MarkCheckedIn flips the check-in fields with the status guards in the
// update predicate, mirroring Cancel: the second scan of a ticket sees
// zero rows affected.
func (r *PostgresRegistrationRepository) MarkCheckedIn(reg *registration.Registration) error {
	now := time.Now()
	res := r.db.Model(&registration.Registration{}).
		Where("id = ? AND status = ? AND check_in_status = ?",
			reg.ID, registration.StatusConfirmed, registration.CheckInNotCheckedIn).
		Updates(map[string]any{
			"check_in_status": registration.CheckInCheckedIn,
			"checked_in_at":   now,
		})
	if res.Error != nil {
		return fmt.Errorf("mark registration checked in: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.InvalidState("registration is cancelled or already checked in")
	}

	reg.CheckInStatus = registration.CheckInCheckedIn
	reg.CheckedInAt = &now

	r.log.Info("attendee checked in", "registration_id", reg.ID, "event_id", reg.EventID)
	return nil
}

func (r *PostgresRegistrationRepository) GetByID(id string) (*registration.Registration, error) {
	var reg registration.Registration
	if err := r.db.First(&reg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound("registration not found")
		}
		return nil, fmt.Errorf("failed to retrieve registration: %w", err)
	}
	return &reg, nil
}

// GetByUserAndEvent returns the user's confirmed registration for the
// event, or (nil, nil) when none exists.
func (r *PostgresRegistrationRepository) GetByUserAndEvent(userID, eventID string) (*registration.Registration, error) {
	var reg registration.Registration
	err := r.db.Where("user_id = ? AND event_id = ? AND status = ?",
		userID, eventID, registration.StatusConfirmed).First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve registration: %w", err)
	}
	return &reg, nil
}

func (r *PostgresRegistrationRepository) GetByTicketCode(code string) (*registration.Registration, error) {
	var reg registration.Registration
	if err := r.db.First(&reg, "ticket_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound("ticket code not recognized")
		}
		return nil, fmt.Errorf("failed to retrieve registration: %w", err)
	}
	return &reg, nil
}

func (r *PostgresRegistrationRepository) GetUserRegistrations(userID string, status *registration.Status, includePast bool) ([]*registration.Registration, error) {
	query := r.db.Joins("JOIN events ON events.id = registrations.event_id").
		Where("registrations.user_id = ?", userID)

	if status != nil {
		query = query.Where("registrations.status = ?", *status)
	}
	if !includePast {
		query = query.Where("events.date >= CURRENT_DATE")
	}

	var regs []*registration.Registration
	if err := query.Order("events.date ASC").Find(&regs).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve user registrations: %w", err)
	}
	return regs, nil
}

func (r *PostgresRegistrationRepository) GetEventRegistrations(eventID string) ([]*registration.Registration, error) {
	var regs []*registration.Registration
	if err := r.db.Where("event_id = ? AND status = ?", eventID, registration.StatusConfirmed).
		Order("registered_at ASC").Find(&regs).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve event registrations: %w", err)
	}
	return regs, nil
}

func (r *PostgresRegistrationRepository) TicketCodeExists(code string) (bool, error) {
	var count int64
	if err := r.db.Model(&registration.Registration{}).
		Where("ticket_code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check ticket code: %w", err)
	}
	return count > 0, nil
}
