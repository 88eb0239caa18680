package services

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/terpspark/terpspark-api/internal/config"
	"github.com/terpspark/terpspark-api/internal/domain/audit"
	"github.com/terpspark/terpspark-api/internal/domain/common"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/domain/participant"
	"github.com/terpspark/terpspark-api/internal/domain/registration"
	"github.com/terpspark/terpspark-api/internal/logger"
	"github.com/terpspark/terpspark-api/internal/notification"
	"github.com/terpspark/terpspark-api/internal/storage/postgres"
	"github.com/terpspark/terpspark-api/internal/ticket"
	"github.com/terpspark/terpspark-api/internal/validation"
)

// RegistrationService handles event registration business logic, including
// capacity enforcement, ticket generation, and waitlist promotion after
// cancellations.
type RegistrationService struct {
	repos           postgres.RepositoryContainer
	notifier        notification.Notifier
	approvedDomains []string
	maxGuests       int
	log             *log.Logger
}

// NewRegistrationService creates a new registration service instance
func NewRegistrationService(repos postgres.RepositoryContainer, notifier notification.Notifier, cfg *config.Config) *RegistrationService {
	return &RegistrationService{
		repos:           repos,
		notifier:        notifier,
		approvedDomains: cfg.Registration.ApprovedGuestDomains,
		maxGuests:       cfg.Registration.MaxGuests,
		log:             logger.Service("registration"),
	}
}

// CreateRegistrationRequest represents a request to register for an event
type CreateRegistrationRequest struct {
	EventID  string               `json:"event_id" binding:"required"`
	Guests   []registration.Guest `json:"guests"`
	Sessions []string             `json:"session_ids"`
}

// Create registers a user for an event. Preconditions are checked in
// order and the first failure wins; the capacity check and the counter
// increment happen atomically inside the repository under the event lock.
func (s *RegistrationService) Create(userID string, req CreateRegistrationRequest) (*registration.Registration, error) {
	if err := validation.ValidateUUID(userID, "user_id"); err != nil {
		return nil, common.Validation("%v", err)
	}
	if err := validation.ValidateUUID(req.EventID, "event_id"); err != nil {
		return nil, common.Validation("%v", err)
	}

	s.log.Debug("Creating registration", "user_id", userID, "event_id", req.EventID, "guests", len(req.Guests))

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
		return nil, common.InvalidState("cannot register for a past event")
	}

	existing, err := s.repos.Registrations().GetByUserAndEvent(userID, req.EventID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.Conflict("you are already registered for this event")
	}

	if err := s.validateGuests(req.EventID, req.Guests); err != nil {
		return nil, err
	}

	code, err := s.issueTicketCode(req.EventID)
	if err != nil {
		return nil, err
	}

	reg := registration.New(userID, req.EventID, code, ticket.GenerateQRPayload(code), req.Guests, req.Sessions)

	if err := s.repos.Registrations().CreateWithinCapacity(reg, reg.SeatCount()); err != nil {
		return nil, err
	}

	s.log.Info("Registration created",
		"registration_id", reg.ID,
		"event_id", req.EventID,
		"seats", reg.SeatCount(),
		"ticket_code", reg.TicketCode)

	s.notifyBestEffort("registration confirmation", func() error {
		return s.notifier.SendRegistrationConfirmation(user, ev, reg)
	})

	s.auditBestEffort(audit.NewRecord(
		audit.ActionRegistrationCreated,
		user.ID, user.Name, string(user.Role),
		audit.TargetRegistration, reg.ID, ev.Title,
		"registered for event",
		audit.Metadata{"seats": reg.SeatCount(), "ticket_code": reg.TicketCode},
	))

	return reg, nil
}

// Cancel cancels a registration owned by the given user and frees its
// seats. Freed capacity triggers waitlist promotion, which is best-effort
// and never rolls back the cancellation.
func (s *RegistrationService) Cancel(registrationID, userID string) (*registration.Registration, error) {
	if err := validation.ValidateUUID(registrationID, "registration_id"); err != nil {
		return nil, common.Validation("%v", err)
	}

	reg, err := s.repos.Registrations().GetByID(registrationID)
	if err != nil {
		return nil, err
	}

	if reg.UserID != userID {
		return nil, common.Forbidden("you can only cancel your own registrations")
	}

	// Fast path; the repository re-checks the status inside its lock
	// scope, which is what keeps a concurrent duplicate cancel from
	// decrementing the counter twice.
	if reg.IsCancelled() {
		return nil, common.InvalidState("registration is already cancelled")
	}

	freed := reg.SeatCount()
	if err := s.repos.Registrations().Cancel(reg, freed); err != nil {
		return nil, err
	}

	s.log.Info("Registration cancelled",
		"registration_id", reg.ID,
		"event_id", reg.EventID,
		"freed_seats", freed)

	user, userErr := s.repos.Users().GetByID(userID)
	ev, evErr := s.repos.Events().GetByID(reg.EventID)
	if userErr == nil && evErr == nil {
		s.notifyBestEffort("cancellation confirmation", func() error {
			return s.notifier.SendCancellationConfirmation(user, ev, reg)
		})
	}

	// Fill every freed seat from the waitlist while someone is queued
	// and capacity remains.
	for s.promoteOne(reg.EventID) {
	}

	eventTitle := ""
	if evErr == nil {
		eventTitle = ev.Title
	}
	actorName, actorRole := "", ""
	if userErr == nil {
		actorName, actorRole = user.Name, string(user.Role)
	}
	s.auditBestEffort(audit.NewRecord(
		audit.ActionRegistrationCancelled,
		userID, actorName, actorRole,
		audit.TargetRegistration, reg.ID, eventTitle,
		"cancelled registration",
		audit.Metadata{"freed_seats": freed},
	))

	return reg, nil
}

// CheckInRequest identifies the ticket being scanned at the door. Either
// the bare ticket code or the QR blob is accepted.
type CheckInRequest struct {
	TicketCode string `json:"ticket_code"`
	QRPayload  string `json:"qr_payload"`
}

// CheckIn records event-day attendance for a scanned ticket. Only the
// event's organizer or an admin may check attendees in; a cancelled or
// already-scanned ticket is rejected.
func (s *RegistrationService) CheckIn(actorID string, req CheckInRequest) (*registration.Registration, error) {
	if err := validation.ValidateUUID(actorID, "user_id"); err != nil {
		return nil, common.Validation("%v", err)
	}

	code := req.TicketCode
	if code == "" && req.QRPayload != "" {
		decoded, err := ticket.DecodeQRPayload(req.QRPayload)
		if err != nil {
			return nil, common.Validation("%v", err)
		}
		code = decoded
	}
	if code == "" {
		return nil, common.Validation("a ticket code or QR payload is required")
	}

	actor, err := s.repos.Users().GetByID(actorID)
	if err != nil {
		return nil, err
	}

	reg, err := s.repos.Registrations().GetByTicketCode(code)
	if err != nil {
		return nil, err
	}

	ev, err := s.repos.Events().GetByID(reg.EventID)
	if err != nil {
		return nil, err
	}

	if actor.Role != participant.RoleAdmin && ev.OrganizerID != actor.ID {
		return nil, common.Forbidden("only the event organizer can check in attendees")
	}

	if err := s.repos.Registrations().MarkCheckedIn(reg); err != nil {
		return nil, err
	}

	s.log.Info("Attendee checked in",
		"registration_id", reg.ID,
		"event_id", ev.ID,
		"ticket_code", reg.TicketCode)

	s.auditBestEffort(audit.NewRecord(
		audit.ActionRegistrationCheckedIn,
		actor.ID, actor.Name, string(actor.Role),
		audit.TargetRegistration, reg.ID, ev.Title,
		"checked in attendee",
		audit.Metadata{"ticket_code": reg.TicketCode, "seats": reg.SeatCount()},
	))

	return reg, nil
}

// GetUserRegistrations lists a user's registrations sorted by event date.
// An empty or unknown status filter returns all statuses; past events are
// excluded unless includePast is set.
func (s *RegistrationService) GetUserRegistrations(userID, statusFilter string, includePast bool) ([]*registration.Registration, error) {
	if err := validation.ValidateUUID(userID, "user_id"); err != nil {
		return nil, common.Validation("%v", err)
	}

	var status *registration.Status
	if st, ok := registration.StatusFromString(statusFilter); ok {
		status = &st
	}

	return s.repos.Registrations().GetUserRegistrations(userID, status, includePast)
}

// GetByID returns a single registration if the given user owns it
func (s *RegistrationService) GetByID(registrationID, userID string) (*registration.Registration, error) {
	reg, err := s.repos.Registrations().GetByID(registrationID)
	if err != nil {
		return nil, err
	}
	if reg.UserID != userID {
		return nil, common.Forbidden("you can only view your own registrations")
	}
	return reg, nil
}

// promoteOne moves the head of the event's waitlist into a confirmed
// registration if a seat is free. It returns true only when a promotion
// actually happened; dead or duplicate entries are discarded and reported
// as false so the caller's loop stops at a stable state.
func (s *RegistrationService) promoteOne(eventID string) bool {
	entry, err := s.repos.Waitlist().PeekFirst(eventID)
	if err != nil {
		s.log.Error("Failed to read waitlist head", "event_id", eventID, "error", err)
		return false
	}
	if entry == nil {
		return false
	}

	ev, evErr := s.repos.Events().GetByID(eventID)
	user, userErr := s.repos.Users().GetByID(entry.UserID)
	if evErr != nil || userErr != nil {
		s.log.Warn("Discarding dead waitlist entry",
			"waitlist_id", entry.ID, "event_id", eventID, "user_id", entry.UserID)
		if err := s.repos.Waitlist().Remove(entry); err != nil {
			s.log.Error("Failed to discard dead waitlist entry", "waitlist_id", entry.ID, "error", err)
		}
		return false
	}

	existing, err := s.repos.Registrations().GetByUserAndEvent(entry.UserID, eventID)
	if err != nil {
		s.log.Error("Failed to check existing registration during promotion",
			"waitlist_id", entry.ID, "error", err)
		return false
	}
	if existing != nil {
		// Already confirmed through another path while queued; drop the
		// entry without creating a duplicate.
		s.log.Info("Removing waitlist entry for already-registered user",
			"waitlist_id", entry.ID, "user_id", entry.UserID, "event_id", eventID)
		if err := s.repos.Waitlist().Remove(entry); err != nil {
			s.log.Error("Failed to remove stale waitlist entry", "waitlist_id", entry.ID, "error", err)
		}
		return false
	}

	code, err := s.issueTicketCode(eventID)
	if err != nil {
		s.log.Error("Failed to issue ticket code during promotion", "event_id", eventID, "error", err)
		return false
	}

	// Promotions never carry over guest slots.
	reg := registration.New(entry.UserID, eventID, code, ticket.GenerateQRPayload(code), nil, nil)

	if err := s.repos.Registrations().CreateWithinCapacity(reg, 1); err != nil {
		// The freed seat was taken by a concurrent registration; the
		// entry stays queued for the next opening.
		s.log.Info("Promotion skipped, no capacity", "event_id", eventID, "waitlist_id", entry.ID)
		return false
	}

	oldPosition := entry.Position
	if err := s.repos.Waitlist().Remove(entry); err != nil {
		s.log.Error("Failed to remove promoted waitlist entry",
			"waitlist_id", entry.ID, "error", err)
	}

	s.log.Info("Waitlist entry promoted",
		"event_id", eventID,
		"user_id", entry.UserID,
		"old_position", oldPosition,
		"registration_id", reg.ID)

	s.notifyBestEffort("waitlist promotion", func() error {
		return s.notifier.SendWaitlistPromotion(user, ev, reg, oldPosition)
	})

	s.auditBestEffort(audit.NewRecord(
		audit.ActionWaitlistPromoted,
		user.ID, user.Name, string(user.Role),
		audit.TargetRegistration, reg.ID, ev.Title,
		"promoted from waitlist",
		audit.Metadata{"old_position": oldPosition},
	))

	return true
}

// validateGuests enforces the guest limit, institutional email domains,
// in-request duplicates, and collisions with attendees already confirmed
// for the event.
func (s *RegistrationService) validateGuests(eventID string, guests []registration.Guest) error {
	if len(guests) > s.maxGuests {
		return common.Validation("a maximum of %d guests is allowed", s.maxGuests)
	}

	seen := make(map[string]bool, len(guests))
	for _, g := range guests {
		email := strings.ToLower(strings.TrimSpace(g.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return common.Validation("guest email %q is invalid", g.Email)
		}
		if !validation.EmailDomainApproved(email, s.approvedDomains) {
			return common.Validation("guest email %q must use an approved institutional domain", g.Email)
		}
		if seen[email] {
			return common.Validation("duplicate guest email %q", g.Email)
		}
		seen[email] = true
	}

	if len(guests) == 0 {
		return nil
	}

	confirmed, err := s.repos.Registrations().GetEventRegistrations(eventID)
	if err != nil {
		return err
	}

	confirmedGuestEmails := make(map[string]bool)
	for _, reg := range confirmed {
		for _, email := range reg.Guests.Emails() {
			confirmedGuestEmails[strings.ToLower(email)] = true
		}
	}

	for email := range seen {
		if confirmedGuestEmails[email] {
			return common.Conflict("guest %q is already attending this event", email)
		}
		if err := s.guestIsConfirmedPrimary(eventID, email); err != nil {
			return err
		}
	}
	return nil
}

// guestIsConfirmedPrimary rejects a guest email belonging to a user who
// already holds their own confirmed registration for the event.
func (s *RegistrationService) guestIsConfirmedPrimary(eventID, email string) error {
	guestUser, err := s.repos.Users().GetByEmail(email)
	if err != nil {
		if common.KindOf(err) == common.KindNotFound {
			return nil
		}
		return err
	}
	existing, err := s.repos.Registrations().GetByUserAndEvent(guestUser.ID, eventID)
	if err != nil {
		return err
	}
	if existing != nil {
		return common.Conflict("guest %q is already registered for this event", email)
	}
	return nil
}

// issueTicketCode generates a ticket code, appending a random
// disambiguator on the rare collision with an existing code.
func (s *RegistrationService) issueTicketCode(eventID string) (string, error) {
	code := ticket.GenerateCode(time.Now().Unix(), eventID)

	exists, err := s.repos.Registrations().TicketCodeExists(code)
	if err != nil {
		return "", err
	}
	if exists {
		code = ticket.Disambiguate(code)
	}
	return code, nil
}

func (s *RegistrationService) notifyBestEffort(kind string, send func() error) {
	if err := send(); err != nil {
		s.log.Warn("Notification failed", "kind", kind, "error", err)
	}
}

func (s *RegistrationService) auditBestEffort(rec *audit.Record) {
	if err := s.repos.Audits().Create(rec); err != nil {
		s.log.Warn("Audit record write failed", "action", rec.Action, "error", err)
	}
}
