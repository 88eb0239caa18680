package postgres

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/terpspark/terpspark-api/internal/domain/audit"
	"github.com/terpspark/terpspark-api/internal/domain/common"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/domain/participant"
	"github.com/terpspark/terpspark-api/internal/domain/registration"
	"github.com/terpspark/terpspark-api/internal/domain/waitlist"
)

// memoryState is the shared backing store for the in-memory repositories.
// A single mutex serializes every composite operation, which gives the
// same per-event atomicity the SQL implementations get from row locks.
type memoryState struct {
	mu            sync.Mutex
	events        map[string]*event.Event
	users         map[string]*participant.User
	registrations map[string]*registration.Registration
	waitlist      map[string]*waitlist.Entry
	audits        []*audit.Record
}

// MemoryContainer bundles in-memory implementations of every repository
// over one shared state. Used by unit tests and local development without
// a database.
type MemoryContainer struct {
	state         *memoryState
	events        *MemoryEventRepository
	users         *MemoryUserRepository
	registrations *MemoryRegistrationRepository
	waitlist      *MemoryWaitlistRepository
	audits        *MemoryAuditRepository
}

// NewMemoryContainer creates an empty in-memory repository container
func NewMemoryContainer() *MemoryContainer {
	state := &memoryState{
		events:        make(map[string]*event.Event),
		users:         make(map[string]*participant.User),
		registrations: make(map[string]*registration.Registration),
		waitlist:      make(map[string]*waitlist.Entry),
	}
	return &MemoryContainer{
		state:         state,
		events:        &MemoryEventRepository{state: state},
		users:         &MemoryUserRepository{state: state},
		registrations: &MemoryRegistrationRepository{state: state},
		waitlist:      &MemoryWaitlistRepository{state: state},
		audits:        &MemoryAuditRepository{state: state},
	}
}

func (c *MemoryContainer) Events() EventRepository                 { return c.events }
func (c *MemoryContainer) Users() UserRepository                   { return c.users }
func (c *MemoryContainer) Registrations() RegistrationRepository   { return c.registrations }
func (c *MemoryContainer) Waitlist() WaitlistRepository            { return c.waitlist }
func (c *MemoryContainer) Audits() AuditRepository                 { return c.audits }

// MemoryEventRepository is the in-memory EventRepository
type MemoryEventRepository struct {
	state *memoryState
}

func (r *MemoryEventRepository) Create(ev *event.Event) error {
	if err := ev.Validate(); err != nil {
		return common.Validation("invalid event: %v", err)
	}

	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	stored := *ev
	r.state.events[ev.ID] = &stored
	return nil
}

func (r *MemoryEventRepository) GetByID(id string) (*event.Event, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return r.state.eventByID(id)
}

func (r *MemoryEventRepository) GetAllPublished() ([]*event.Event, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	var events []*event.Event
	for _, ev := range r.state.events {
		if ev.Status == event.StatusPublished {
			copied := *ev
			events = append(events, &copied)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}

func (r *MemoryEventRepository) Update(ev *event.Event) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.events[ev.ID]; !ok {
		return common.NotFound("event not found")
	}
	stored := *ev
	r.state.events[ev.ID] = &stored
	return nil
}

func (r *MemoryEventRepository) AdjustCounters(eventID string, registeredDelta, waitlistDelta int) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	ev, ok := r.state.events[eventID]
	if !ok {
		return common.NotFound("event not found")
	}
	ev.RegisteredCount = max(ev.RegisteredCount+registeredDelta, 0)
	ev.WaitlistCount = max(ev.WaitlistCount+waitlistDelta, 0)
	return nil
}

// MemoryUserRepository is the in-memory UserRepository
type MemoryUserRepository struct {
	state *memoryState
}

func (r *MemoryUserRepository) Create(u *participant.User) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	stored := *u
	stored.Email = strings.ToLower(stored.Email)
	r.state.users[u.ID] = &stored
	return nil
}

func (r *MemoryUserRepository) GetByID(id string) (*participant.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	u, ok := r.state.users[id]
	if !ok {
		return nil, common.NotFound("user not found")
	}
	copied := *u
	return &copied, nil
}

func (r *MemoryUserRepository) GetByEmail(email string) (*participant.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	lowered := strings.ToLower(email)
	for _, u := range r.state.users {
		if u.Email == lowered {
			copied := *u
			return &copied, nil
		}
	}
	return nil, common.NotFound("user not found")
}

// MemoryRegistrationRepository is the in-memory RegistrationRepository
type MemoryRegistrationRepository struct {
	state *memoryState
}

func (r *MemoryRegistrationRepository) CreateWithinCapacity(reg *registration.Registration, seats int) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	ev, ok := r.state.events[reg.EventID]
	if !ok {
		return common.NotFound("event not found")
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

	stored := *reg
	r.state.registrations[reg.ID] = &stored
	ev.RegisteredCount += seats
	return nil
}

func (r *MemoryRegistrationRepository) Cancel(reg *registration.Registration, freedSeats int) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	stored, ok := r.state.registrations[reg.ID]
	if !ok {
		return common.NotFound("registration not found")
	}
	if stored.Status != registration.StatusConfirmed {
		return common.InvalidState("registration is already cancelled")
	}

	now := time.Now()
	stored.Status = registration.StatusCancelled
	stored.CancelledAt = &now
	reg.Status = registration.StatusCancelled
	reg.CancelledAt = &now

	if ev, ok := r.state.events[reg.EventID]; ok {
		ev.RegisteredCount = max(ev.RegisteredCount-freedSeats, 0)
	}
	return nil
}

func (r *MemoryRegistrationRepository) MarkCheckedIn(reg *registration.Registration) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	stored, ok := r.state.registrations[reg.ID]
	if !ok {
		return common.NotFound("registration not found")
	}
	if stored.Status != registration.StatusConfirmed || stored.CheckInStatus == registration.CheckInCheckedIn {
		return common.InvalidState("registration is cancelled or already checked in")
	}

	now := time.Now()
	stored.CheckInStatus = registration.CheckInCheckedIn
	stored.CheckedInAt = &now
	reg.CheckInStatus = registration.CheckInCheckedIn
	reg.CheckedInAt = &now
	return nil
}

func (r *MemoryRegistrationRepository) GetByID(id string) (*registration.Registration, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	reg, ok := r.state.registrations[id]
	if !ok {
		return nil, common.NotFound("registration not found")
	}
	copied := *reg
	return &copied, nil
}

func (r *MemoryRegistrationRepository) GetByUserAndEvent(userID, eventID string) (*registration.Registration, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	for _, reg := range r.state.registrations {
		if reg.UserID == userID && reg.EventID == eventID && reg.Status == registration.StatusConfirmed {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MemoryRegistrationRepository) GetByTicketCode(code string) (*registration.Registration, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	for _, reg := range r.state.registrations {
		if reg.TicketCode == code {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, common.NotFound("ticket code not recognized")
}

func (r *MemoryRegistrationRepository) GetUserRegistrations(userID string, status *registration.Status, includePast bool) ([]*registration.Registration, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	now := time.Now()
	var regs []*registration.Registration
	for _, reg := range r.state.registrations {
		if reg.UserID != userID {
			continue
		}
		if status != nil && reg.Status != *status {
			continue
		}
		ev, ok := r.state.events[reg.EventID]
		if !ok {
			continue
		}
		if !includePast && ev.IsPast(now) {
			continue
		}
		copied := *reg
		regs = append(regs, &copied)
	}

	sort.Slice(regs, func(i, j int) bool {
		return r.state.events[regs[i].EventID].Date.Before(r.state.events[regs[j].EventID].Date)
	})
	return regs, nil
}

func (r *MemoryRegistrationRepository) GetEventRegistrations(eventID string) ([]*registration.Registration, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	var regs []*registration.Registration
	for _, reg := range r.state.registrations {
		if reg.EventID == eventID && reg.Status == registration.StatusConfirmed {
			copied := *reg
			regs = append(regs, &copied)
		}
	}
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].RegisteredAt.Before(regs[j].RegisteredAt)
	})
	return regs, nil
}

func (r *MemoryRegistrationRepository) TicketCodeExists(code string) (bool, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	for _, reg := range r.state.registrations {
		if reg.TicketCode == code {
			return true, nil
		}
	}
	return false, nil
}

// MemoryWaitlistRepository is the in-memory WaitlistRepository
type MemoryWaitlistRepository struct {
	state *memoryState
}

func (r *MemoryWaitlistRepository) JoinIfFull(entry *waitlist.Entry) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	ev, ok := r.state.events[entry.EventID]
	if !ok {
		return common.NotFound("event not found")
	}
	if !ev.IsFull() {
		return common.InvalidState("event has available spots, register instead")
	}

	maxPosition := 0
	for _, e := range r.state.waitlist {
		if e.EventID == entry.EventID && e.Position > maxPosition {
			maxPosition = e.Position
		}
	}
	entry.Position = maxPosition + 1

	stored := *entry
	r.state.waitlist[entry.ID] = &stored
	ev.WaitlistCount++
	return nil
}

func (r *MemoryWaitlistRepository) Remove(entry *waitlist.Entry) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	stored, ok := r.state.waitlist[entry.ID]
	if !ok {
		return common.NotFound("waitlist entry not found")
	}
	delete(r.state.waitlist, entry.ID)

	for _, e := range r.state.waitlist {
		if e.EventID == stored.EventID && e.Position > stored.Position {
			e.Position--
		}
	}

	if ev, ok := r.state.events[stored.EventID]; ok {
		ev.WaitlistCount = max(ev.WaitlistCount-1, 0)
	}
	return nil
}

func (r *MemoryWaitlistRepository) GetByID(id string) (*waitlist.Entry, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	entry, ok := r.state.waitlist[id]
	if !ok {
		return nil, common.NotFound("waitlist entry not found")
	}
	copied := *entry
	return &copied, nil
}

func (r *MemoryWaitlistRepository) GetByUserAndEvent(userID, eventID string) (*waitlist.Entry, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	for _, entry := range r.state.waitlist {
		if entry.UserID == userID && entry.EventID == eventID {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MemoryWaitlistRepository) GetUserEntries(userID string) ([]*waitlist.Entry, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	var entries []*waitlist.Entry
	for _, entry := range r.state.waitlist {
		if entry.UserID == userID {
			copied := *entry
			entries = append(entries, &copied)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].JoinedAt.Before(entries[j].JoinedAt)
	})
	return entries, nil
}

func (r *MemoryWaitlistRepository) GetEventWaitlist(eventID string) ([]*waitlist.Entry, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return r.state.eventWaitlistLocked(eventID), nil
}

func (r *MemoryWaitlistRepository) PeekFirst(eventID string) (*waitlist.Entry, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	entries := r.state.eventWaitlistLocked(eventID)
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// MemoryAuditRepository is the in-memory AuditRepository
type MemoryAuditRepository struct {
	state *memoryState
}

func (r *MemoryAuditRepository) Create(rec *audit.Record) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	stored := *rec
	r.state.audits = append(r.state.audits, &stored)
	return nil
}

func (r *MemoryAuditRepository) GetRecent(limit int) ([]*audit.Record, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	if limit > len(r.state.audits) {
		limit = len(r.state.audits)
	}

	records := make([]*audit.Record, 0, limit)
	for i := len(r.state.audits) - 1; i >= 0 && len(records) < limit; i-- {
		copied := *r.state.audits[i]
		records = append(records, &copied)
	}
	return records, nil
}

func (s *memoryState) eventByID(id string) (*event.Event, error) {
	ev, ok := s.events[id]
	if !ok {
		return nil, common.NotFound("event not found")
	}
	copied := *ev
	return &copied, nil
}

func (s *memoryState) eventWaitlistLocked(eventID string) []*waitlist.Entry {
	var entries []*waitlist.Entry
	for _, entry := range s.waitlist {
		if entry.EventID == eventID {
			copied := *entry
			entries = append(entries, &copied)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})
	return entries
}
