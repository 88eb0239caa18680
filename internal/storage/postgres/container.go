package postgres

import (
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/terpspark/terpspark-api/internal/config"
	"github.com/terpspark/terpspark-api/internal/logger"
)

// RepositoryContainer provides access to all repositories
type RepositoryContainer interface {
	Events() EventRepository
	Users() UserRepository
	Registrations() RegistrationRepository
	Waitlist() WaitlistRepository
	Audits() AuditRepository
}

// Container implements RepositoryContainer over PostgreSQL
type Container struct {
	db               *gorm.DB
	log              *log.Logger
	eventRepo        EventRepository
	userRepo         UserRepository
	registrationRepo RegistrationRepository
	waitlistRepo     WaitlistRepository
	auditRepo        AuditRepository
}

// NewContainer creates a new repository container with all repositories initialized
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.Repository("postgres_container")
	log.Info("Initializing PostgreSQL repository container...")

	db, err := Connect(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		log.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	container := NewContainerWithDB(db)

	if err := container.Health(); err != nil {
		log.Error("Container health check failed", "error", err)
		return nil, fmt.Errorf("container health check failed: %w", err)
	}

	log.Info("PostgreSQL repository container initialized successfully")
	return container, nil
}

// NewContainerWithDB creates a container with an existing database connection
func NewContainerWithDB(db *gorm.DB) *Container {
	return &Container{
		db:               db,
		log:              logger.Repository("postgres_container"),
		eventRepo:        NewPostgresEventRepository(db),
		userRepo:         NewPostgresUserRepository(db),
		registrationRepo: NewPostgresRegistrationRepository(db),
		waitlistRepo:     NewPostgresWaitlistRepository(db),
		auditRepo:        NewPostgresAuditRepository(db),
	}
}

// Events returns the event repository
func (c *Container) Events() EventRepository {
	return c.eventRepo
}

// Users returns the user repository
func (c *Container) Users() UserRepository {
	return c.userRepo
}

// Registrations returns the registration repository
func (c *Container) Registrations() RegistrationRepository {
	return c.registrationRepo
}

// Waitlist returns the waitlist repository
func (c *Container) Waitlist() WaitlistRepository {
	return c.waitlistRepo
}

// Audits returns the audit log repository
func (c *Container) Audits() AuditRepository {
	return c.auditRepo
}

// Health performs a health check on the database connection
func (c *Container) Health() error {
	c.log.Debug("Performing container health check...")

	if err := HealthCheck(c.db); err != nil {
		c.log.Error("Database health check failed", "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}

	c.log.Debug("Container health check passed")
	return nil
}

// DB exposes the underlying connection for server shutdown
func (c *Container) DB() *gorm.DB {
	return c.db
}
