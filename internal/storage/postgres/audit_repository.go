package postgres

import (
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/terpspark/terpspark-api/internal/domain/audit"
	"github.com/terpspark/terpspark-api/internal/logger"
)

// PostgresAuditRepository implements AuditRepository using GORM
type PostgresAuditRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresAuditRepository creates a new PostgreSQL audit repository
func NewPostgresAuditRepository(db *gorm.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{
		db:  db,
		log: logger.Repository("audit"),
	}
}

func (r *PostgresAuditRepository) Create(rec *audit.Record) error {
	if err := r.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	r.log.Debug("audit record appended", "action", rec.Action, "target_type", rec.TargetType, "target_id", rec.TargetID)
	return nil
}

func (r *PostgresAuditRepository) GetRecent(limit int) ([]*audit.Record, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []*audit.Record
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve audit records: %w", err)
	}
	return records, nil
}
