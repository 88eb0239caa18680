package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terpspark/terpspark-api/internal/domain/common"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/domain/registration"
	"github.com/terpspark/terpspark-api/internal/domain/waitlist"
)

func seedEvent(t *testing.T, c *MemoryContainer, capacity, registered int) *event.Event {
	t.Helper()
	ev := event.New("Career Fair", "Employers on campus", "organizer-1",
		time.Now().AddDate(0, 0, 7), capacity)
	ev.Status = event.StatusPublished
	ev.RegisteredCount = registered
	require.NoError(t, c.Events().Create(ev))
	return ev
}

func TestAdjustCountersClampsAtZero(t *testing.T) {
	c := NewMemoryContainer()
	ev := seedEvent(t, c, 10, 2)

	require.NoError(t, c.Events().AdjustCounters(ev.ID, -5, -1))

	got, err := c.Events().GetByID(ev.ID)
	require.NoError(t, err)
	assert.Zero(t, got.RegisteredCount)
	assert.Zero(t, got.WaitlistCount)

	require.NoError(t, c.Events().AdjustCounters(ev.ID, 3, 2))
	got, err = c.Events().GetByID(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.RegisteredCount)
	assert.Equal(t, 2, got.WaitlistCount)

	err = c.Events().AdjustCounters("missing", 1, 0)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestCreateWithinCapacityEnforcesLedger(t *testing.T) {
	c := NewMemoryContainer()
	ev := seedEvent(t, c, 2, 1)

	reg := registration.New("user-1", ev.ID, "TKT-1", "", nil, nil)
	require.NoError(t, c.Registrations().CreateWithinCapacity(reg, 1))

	// Now full; the next attempt carries the waitlist hint.
	overflow := registration.New("user-2", ev.ID, "TKT-2", "", nil, nil)
	err := c.Registrations().CreateWithinCapacity(overflow, 1)
	assert.Equal(t, common.KindConflict, common.KindOf(err))
	assert.Equal(t, common.HintJoinWaitlist, common.HintOf(err))

	got, _ := c.Events().GetByID(ev.ID)
	assert.Equal(t, got.Capacity, got.RegisteredCount)
}

func TestCancelDecrementsOnlyOnce(t *testing.T) {
	c := NewMemoryContainer()
	ev := seedEvent(t, c, 5, 0)

	first := registration.New("user-1", ev.ID, "TKT-1", "", nil, nil)
	second := registration.New("user-2", ev.ID, "TKT-2", "", nil, nil)
	require.NoError(t, c.Registrations().CreateWithinCapacity(first, 1))
	require.NoError(t, c.Registrations().CreateWithinCapacity(second, 1))

	// Two requests read the same confirmed registration before either
	// commits its cancel.
	readA, err := c.Registrations().GetByID(first.ID)
	require.NoError(t, err)
	readB, err := c.Registrations().GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, registration.StatusConfirmed, readA.Status)
	assert.Equal(t, registration.StatusConfirmed, readB.Status)

	require.NoError(t, c.Registrations().Cancel(readA, readA.SeatCount()))

	err = c.Registrations().Cancel(readB, readB.SeatCount())
	assert.Equal(t, common.KindInvalidState, common.KindOf(err))

	got, _ := c.Events().GetByID(ev.ID)
	assert.Equal(t, 1, got.RegisteredCount, "one cancel frees one seat, the duplicate frees none")
}

func TestJoinIfFullRejectsOpenEvent(t *testing.T) {
	c := NewMemoryContainer()
	ev := seedEvent(t, c, 5, 3)

	entry := waitlist.NewEntry("user-1", ev.ID, waitlist.NotifyEmail)
	err := c.Waitlist().JoinIfFull(entry)
	assert.Equal(t, common.KindInvalidState, common.KindOf(err))
}

func TestRemoveKeepsPositionsContiguous(t *testing.T) {
	c := NewMemoryContainer()
	ev := seedEvent(t, c, 1, 1)

	entries := make([]*waitlist.Entry, 3)
	for i, user := range []string{"x", "y", "z"} {
		entries[i] = waitlist.NewEntry(user, ev.ID, waitlist.NotifyEmail)
		require.NoError(t, c.Waitlist().JoinIfFull(entries[i]))
		assert.Equal(t, i+1, entries[i].Position)
	}

	require.NoError(t, c.Waitlist().Remove(entries[1]))

	remaining, err := c.Waitlist().GetEventWaitlist(ev.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "x", remaining[0].UserID)
	assert.Equal(t, 1, remaining[0].Position)
	assert.Equal(t, "z", remaining[1].UserID)
	assert.Equal(t, 2, remaining[1].Position)

	got, _ := c.Events().GetByID(ev.ID)
	assert.Equal(t, 2, got.WaitlistCount)
}
