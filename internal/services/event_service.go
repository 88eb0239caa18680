package services

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/terpspark/terpspark-api/internal/domain/audit"
	"github.com/terpspark/terpspark-api/internal/domain/common"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/domain/participant"
	"github.com/terpspark/terpspark-api/internal/logger"
	"github.com/terpspark/terpspark-api/internal/storage/objectstore"
	"github.com/terpspark/terpspark-api/internal/storage/postgres"
	"github.com/terpspark/terpspark-api/internal/validation"
)

// EventService handles event lifecycle business logic
type EventService struct {
	repos  postgres.RepositoryContainer
	images objectstore.Store
	log    *log.Logger
}

// NewEventService creates a new event service instance. The image store
// may be nil when object storage is not configured.
func NewEventService(repos postgres.RepositoryContainer, images objectstore.Store) *EventService {
	return &EventService{
		repos:  repos,
		images: images,
		log:    logger.Service("event"),
	}
}

// CreateEventRequest represents a request to create an event
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Date        time.Time `json:"date" binding:"required"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Venue       string    `json:"venue"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity" binding:"required"`
	Tags        []string  `json:"tags"`
}

// Create creates a pending event owned by the given organizer
func (s *EventService) Create(organizerID string, req CreateEventRequest) (*event.Event, error) {
	organizer, err := s.repos.Users().GetByID(organizerID)
	if err != nil {
		return nil, err
	}
	if organizer.Role != participant.RoleOrganizer && organizer.Role != participant.RoleAdmin {
		return nil, common.Forbidden("only organizers can create events")
	}

	if err := validation.ValidateEventDate(req.Date, time.Now()); err != nil {
		return nil, common.Validation("%v", err)
	}

	ev := event.New(req.Title, req.Description, organizerID, req.Date, req.Capacity)
	ev.StartTime = req.StartTime
	ev.EndTime = req.EndTime
	ev.Venue = req.Venue
	ev.Location = req.Location
	ev.Tags = req.Tags

	if err := ev.Validate(); err != nil {
		return nil, common.Validation("%v", err)
	}

	if err := s.repos.Events().Create(ev); err != nil {
		return nil, err
	}

	s.log.Info("Event created", "event_id", ev.ID, "title", ev.Title, "capacity", ev.Capacity)

	s.auditBestEffort(audit.NewRecord(
		audit.ActionEventCreated,
		organizer.ID, organizer.Name, string(organizer.Role),
		audit.TargetEvent, ev.ID, ev.Title,
		"created event",
		audit.Metadata{"capacity": ev.Capacity},
	))

	return ev, nil
}

// Publish moves a pending event to published, making it visible for
// registration.
func (s *EventService) Publish(eventID, organizerID string) (*event.Event, error) {
	ev, err := s.ownedEvent(eventID, organizerID)
	if err != nil {
		return nil, err
	}

	if ev.Status == event.StatusPublished {
		return nil, common.InvalidState("event is already published")
	}
	if ev.Status == event.StatusCancelled {
		return nil, common.InvalidState("cancelled events cannot be published")
	}

	now := time.Now()
	ev.Status = event.StatusPublished
	ev.PublishedAt = &now

	if err := s.repos.Events().Update(ev); err != nil {
		return nil, err
	}

	s.log.Info("Event published", "event_id", ev.ID, "title", ev.Title)
	return ev, nil
}

// CancelEvent marks an event cancelled. Existing registrations keep their
// records; no refund or mass-notification flow exists here.
func (s *EventService) CancelEvent(eventID, organizerID string) (*event.Event, error) {
	ev, err := s.ownedEvent(eventID, organizerID)
	if err != nil {
		return nil, err
	}

	if ev.Status == event.StatusCancelled {
		return nil, common.InvalidState("event is already cancelled")
	}

	now := time.Now()
	ev.Status = event.StatusCancelled
	ev.CancelledAt = &now

	if err := s.repos.Events().Update(ev); err != nil {
		return nil, err
	}

	s.log.Info("Event cancelled", "event_id", ev.ID, "title", ev.Title)

	actorName, actorRole := "", ""
	if organizer, err := s.repos.Users().GetByID(organizerID); err == nil {
		actorName, actorRole = organizer.Name, string(organizer.Role)
	}
	s.auditBestEffort(audit.NewRecord(
		audit.ActionEventCancelled,
		organizerID, actorName, actorRole,
		audit.TargetEvent, ev.ID, ev.Title,
		"cancelled event",
		nil,
	))

	return ev, nil
}

// GetAllPublished lists published events ordered by date
func (s *EventService) GetAllPublished() ([]*event.Event, error) {
	return s.repos.Events().GetAllPublished()
}

// GetByID returns a single event
func (s *EventService) GetByID(eventID string) (*event.Event, error) {
	if err := validation.ValidateUUID(eventID, "event_id"); err != nil {
		return nil, common.Validation("%v", err)
	}
	return s.repos.Events().GetByID(eventID)
}

// UploadImage stores an event image and records its object name on the
// event.
func (s *EventService) UploadImage(ctx context.Context, eventID, organizerID, filename, contentType string, size int64, r io.Reader) (*event.Event, error) {
	if s.images == nil {
		return nil, common.InvalidState("image uploads are not configured")
	}

	ev, err := s.ownedEvent(eventID, organizerID)
	if err != nil {
		return nil, err
	}

	if err := objectstore.ValidateImage(contentType, size); err != nil {
		return nil, common.Validation("%v", err)
	}

	objectName, err := s.images.Put(ctx, eventID, filename, contentType, size, r)
	if err != nil {
		return nil, err
	}

	ev.ImageURL = objectName
	if err := s.repos.Events().Update(ev); err != nil {
		// Best effort cleanup of the orphaned object.
		if rmErr := s.images.Remove(ctx, objectName); rmErr != nil {
			s.log.Warn("Failed to remove orphaned event image", "object", objectName, "error", rmErr)
		}
		return nil, err
	}

	s.log.Info("Event image uploaded", "event_id", ev.ID, "object", objectName)
	return ev, nil
}

// ownedEvent fetches an event and verifies the caller organizes it.
// Admins may manage any event.
func (s *EventService) ownedEvent(eventID, actorID string) (*event.Event, error) {
	if err := validation.ValidateUUID(eventID, "event_id"); err != nil {
		return nil, common.Validation("%v", err)
	}

	ev, err := s.repos.Events().GetByID(eventID)
	if err != nil {
		return nil, err
	}

	if ev.OrganizerID != actorID {
		actor, err := s.repos.Users().GetByID(actorID)
		if err != nil || actor.Role != participant.RoleAdmin {
			return nil, common.Forbidden("you can only manage your own events")
		}
	}
	return ev, nil
}

func (s *EventService) auditBestEffort(rec *audit.Record) {
	if err := s.repos.Audits().Create(rec); err != nil {
		s.log.Warn("Audit record write failed", "action", rec.Action, "error", err)
	}
}
