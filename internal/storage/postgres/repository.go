package postgres

import (
	"github.com/terpspark/terpspark-api/internal/domain/audit"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/domain/participant"
	"github.com/terpspark/terpspark-api/internal/domain/registration"
	"github.com/terpspark/terpspark-api/internal/domain/waitlist"
)

// EventRepository defines the methods for interacting with events in the DB.
type EventRepository interface {
	Create(ev *event.Event) error
	GetByID(id string) (*event.Event, error)
	GetAllPublished() ([]*event.Event, error)
	Update(ev *event.Event) error

	// AdjustCounters applies the given deltas to the event's capacity
	// ledger atomically, clamping both counters at zero.
	AdjustCounters(eventID string, registeredDelta, waitlistDelta int) error
}

// UserRepository defines the methods for interacting with users in the DB.
type UserRepository interface {
	Create(u *participant.User) error
	GetByID(id string) (*participant.User, error)
	GetByEmail(email string) (*participant.User, error)
}

// RegistrationRepository defines the methods for interacting with
// registrations. CreateWithinCapacity and Cancel are the ledger's critical
// sections: implementations must serialize them per event so the capacity
// check and the counter write cannot interleave with another request.
type RegistrationRepository interface {
	// CreateWithinCapacity inserts the registration and increments the
	// event's registered_count by seats in one atomic unit, failing with a
	// Conflict when the remaining capacity is below seats. The Conflict
	// carries the join-waitlist hint when the event is exactly full.
	CreateWithinCapacity(reg *registration.Registration, seats int) error

	// Cancel marks the registration cancelled, stamps cancelled_at and
	// decrements the event's registered_count by freedSeats, clamped at 0.
	// The status check happens inside the lock scope: a registration that
	// is not confirmed fails with InvalidState, so concurrent duplicate
	// cancels cannot decrement the counter twice.
	Cancel(reg *registration.Registration, freedSeats int) error

	// MarkCheckedIn stamps the check-in fields. The guard is part of the
	// update predicate: a registration that is cancelled or already
	// checked in fails with InvalidState, so scanning the same ticket
	// twice admits one person.
	MarkCheckedIn(reg *registration.Registration) error

	GetByID(id string) (*registration.Registration, error)
	GetByUserAndEvent(userID, eventID string) (*registration.Registration, error)
	GetByTicketCode(code string) (*registration.Registration, error)
	GetUserRegistrations(userID string, status *registration.Status, includePast bool) ([]*registration.Registration, error)
	GetEventRegistrations(eventID string) ([]*registration.Registration, error)
	TicketCodeExists(code string) (bool, error)
}

// WaitlistRepository defines the methods for interacting with waitlist
// entries. JoinIfFull and Remove share the per-event lock scope with the
// registration critical sections so position assignment cannot race.
type WaitlistRepository interface {
	// JoinIfFull assigns the next position and inserts the entry,
	// incrementing the event's waitlist_count, all while holding the
	// event lock. It fails with InvalidState when seats are available.
	JoinIfFull(entry *waitlist.Entry) error

	// Remove hard-deletes the entry, renumbers every entry behind it down
	// by one and decrements the event's waitlist_count, clamped at 0.
	Remove(entry *waitlist.Entry) error

	GetByID(id string) (*waitlist.Entry, error)
	GetByUserAndEvent(userID, eventID string) (*waitlist.Entry, error)
	GetUserEntries(userID string) ([]*waitlist.Entry, error)
	GetEventWaitlist(eventID string) ([]*waitlist.Entry, error)

	// PeekFirst returns the entry with the minimum position for the
	// event, or (nil, nil) when the waitlist is empty.
	PeekFirst(eventID string) (*waitlist.Entry, error)
}

// AuditRepository defines the append-only audit trail sink.
type AuditRepository interface {
	Create(rec *audit.Record) error
	GetRecent(limit int) ([]*audit.Record, error)
}
