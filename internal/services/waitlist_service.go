package services

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/terpspark/terpspark-api/internal/domain/audit"
	"github.com/terpspark/terpspark-api/internal/domain/common"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/domain/waitlist"
	"github.com/terpspark/terpspark-api/internal/logger"
	"github.com/terpspark/terpspark-api/internal/notification"
	"github.com/terpspark/terpspark-api/internal/storage/postgres"
	"github.com/terpspark/terpspark-api/internal/validation"
)

// WaitlistService handles FIFO waitlist business logic for full events
type WaitlistService struct {
	repos    postgres.RepositoryContainer
	notifier notification.Notifier
	log      *log.Logger
}

// NewWaitlistService creates a new waitlist service instance
func NewWaitlistService(repos postgres.RepositoryContainer, notifier notification.Notifier) *WaitlistService {
	return &WaitlistService{
		repos:    repos,
		notifier: notifier,
		log:      logger.Service("waitlist"),
	}
}

// JoinWaitlistRequest represents a request to join an event's waitlist
type JoinWaitlistRequest struct {
	EventID                string `json:"event_id" binding:"required"`
	NotificationPreference string `json:"notification_preference"`
}

// Join adds a user to the waitlist of a full event. The position is
// assigned by the repository under the event lock so concurrent joins
// never share a position.
func (s *WaitlistService) Join(userID string, req JoinWaitlistRequest) (*waitlist.Entry, error) {
	if err := validation.ValidateUUID(userID, "user_id"); err != nil {
		return nil, common.Validation("%v", err)
	}
	if err := validation.ValidateUUID(req.EventID, "event_id"); err != nil {
		return nil, common.Validation("%v", err)
	}

	pref := waitlist.NotificationPreference(req.NotificationPreference)
	if req.NotificationPreference != "" && !pref.Valid() {
		return nil, common.Validation("invalid notification preference %q", req.NotificationPreference)
	}

	s.log.Debug("Joining waitlist", "user_id", userID, "event_id", req.EventID)

	user, err := s.repos.Users().GetByID(userID)
	if err != nil {
		return nil, err
	}

	ev, err := s.repos.Events().GetByID(req.EventID)
	if err != nil {
		return nil, err
	}

	if ev.Status != event.StatusPublished {
		return nil, common.InvalidState("event is not published")
	}

	if ev.IsPast(time.Now()) {
		return nil, common.InvalidState("cannot join the waitlist of a past event")
	}

	existing, err := s.repos.Registrations().GetByUserAndEvent(userID, req.EventID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.Conflict("you are already registered for this event")
	}

	queued, err := s.repos.Waitlist().GetByUserAndEvent(userID, req.EventID)
	if err != nil {
		return nil, err
	}
	if queued != nil {
		return nil, common.Conflict("you are already on the waitlist for this event")
	}

	entry := waitlist.NewEntry(userID, req.EventID, pref)

	// The repository verifies the event is actually full and assigns the
	// position atomically.
	if err := s.repos.Waitlist().JoinIfFull(entry); err != nil {
		return nil, err
	}

	s.log.Info("Joined waitlist",
		"waitlist_id", entry.ID,
		"event_id", req.EventID,
		"position", entry.Position)

	s.notifyBestEffort("waitlist confirmation", func() error {
		return s.notifier.SendWaitlistConfirmation(user, ev, entry.Position)
	})

	s.auditBestEffort(audit.NewRecord(
		audit.ActionWaitlistJoined,
		user.ID, user.Name, string(user.Role),
		audit.TargetWaitlist, entry.ID, ev.Title,
		"joined waitlist",
		audit.Metadata{"position": entry.Position},
	))

	return entry, nil
}

// Leave removes a user's own waitlist entry and renumbers the positions
// behind it so the queue stays contiguous.
func (s *WaitlistService) Leave(waitlistID, userID string) error {
	if err := validation.ValidateUUID(waitlistID, "waitlist_id"); err != nil {
		return common.Validation("%v", err)
	}

	entry, err := s.repos.Waitlist().GetByID(waitlistID)
	if err != nil {
		return err
	}

	if entry.UserID != userID {
		return common.Forbidden("you can only leave your own waitlist entries")
	}

	if err := s.repos.Waitlist().Remove(entry); err != nil {
		return err
	}

	s.log.Info("Left waitlist",
		"waitlist_id", entry.ID,
		"event_id", entry.EventID,
		"position", entry.Position)

	actorName, actorRole, eventTitle := "", "", ""
	if user, err := s.repos.Users().GetByID(userID); err == nil {
		actorName, actorRole = user.Name, string(user.Role)
	}
	if ev, err := s.repos.Events().GetByID(entry.EventID); err == nil {
		eventTitle = ev.Title
	}
	s.auditBestEffort(audit.NewRecord(
		audit.ActionWaitlistLeft,
		userID, actorName, actorRole,
		audit.TargetWaitlist, entry.ID, eventTitle,
		"left waitlist",
		audit.Metadata{"position": entry.Position},
	))

	return nil
}

// PeekFirst returns the head of an event's waitlist, or nil when empty
func (s *WaitlistService) PeekFirst(eventID string) (*waitlist.Entry, error) {
	if err := validation.ValidateUUID(eventID, "event_id"); err != nil {
		return nil, common.Validation("%v", err)
	}
	return s.repos.Waitlist().PeekFirst(eventID)
}

// List returns an event's waitlist ordered by position, the FIFO view
// organizers see.
func (s *WaitlistService) List(eventID string) ([]*waitlist.Entry, error) {
	if err := validation.ValidateUUID(eventID, "event_id"); err != nil {
		return nil, common.Validation("%v", err)
	}
	return s.repos.Waitlist().GetEventWaitlist(eventID)
}

// GetUserWaitlist returns every waitlist entry for a user
func (s *WaitlistService) GetUserWaitlist(userID string) ([]*waitlist.Entry, error) {
	if err := validation.ValidateUUID(userID, "user_id"); err != nil {
		return nil, common.Validation("%v", err)
	}
	return s.repos.Waitlist().GetUserEntries(userID)
}

func (s *WaitlistService) notifyBestEffort(kind string, send func() error) {
	if err := send(); err != nil {
		s.log.Warn("Notification failed", "kind", kind, "error", err)
	}
}

func (s *WaitlistService) auditBestEffort(rec *audit.Record) {
	if err := s.repos.Audits().Create(rec); err != nil {
		s.log.Warn("Audit record write failed", "action", rec.Action, "error", err)
	}
}
