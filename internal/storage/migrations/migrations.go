// Package migrations owns the database schema. The schema is driven from
// the domain models via GORM's migrator plus a few raw-SQL indexes the
// model tags cannot express.
package migrations

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/terpspark/terpspark-api/internal/domain/audit"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/domain/participant"
	"github.com/terpspark/terpspark-api/internal/domain/registration"
	"github.com/terpspark/terpspark-api/internal/domain/waitlist"
	"github.com/terpspark/terpspark-api/internal/logger"
)

// RunMigrations applies the full schema.
func RunMigrations(db *gorm.DB) error {
	log := logger.Migration()

	models := []any{
		&participant.User{},
		&event.Event{},
		&registration.Registration{},
		&waitlist.Entry{},
		&audit.Record{},
	}

	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("auto-migrate %T: %w", model, err)
		}
	}

	// Composite indexes backing the hot lookups: duplicate-registration
	// checks and position-ordered waitlist scans.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_registrations_user_event ON registrations (user_id, event_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_waitlist_event_position ON waitlist (event_id, position)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_waitlist_user_event ON waitlist (user_id, event_id)`,
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	log.Info("Schema migrations applied", "models", len(models), "indexes", len(indexes))
	return nil
}

// RollbackMigration drops all managed tables. Intended for development
// databases only.
func RollbackMigration(db *gorm.DB) error {
	tables := []string{"audit_logs", "waitlist", "registrations", "events", "users"}
	for _, table := range tables {
		if err := db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}
