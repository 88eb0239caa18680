package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terpspark/terpspark-api/internal/domain/common"
	"github.com/terpspark/terpspark-api/internal/domain/event"
	"github.com/terpspark/terpspark-api/internal/domain/participant"
	"github.com/terpspark/terpspark-api/internal/domain/waitlist"
	"github.com/terpspark/terpspark-api/internal/storage/postgres"
)

func fillEvent(t *testing.T, svc *RegistrationService, repos postgres.RepositoryContainer, ev *event.Event) {
	t.Helper()
	for i := 0; i < ev.Capacity; i++ {
		filler := seedUser(t, repos, fmt.Sprintf("seatfiller-%d-%d", i, time.Now().UnixNano()))
		_, err := svc.Create(filler.ID, CreateRegistrationRequest{EventID: ev.ID})
		require.NoError(t, err)
	}
}

func TestJoinWaitlist(t *testing.T) {
	regSvc, svc, repos, notifier := newTestServices(t)
	ev := seedPublishedEvent(t, repos, 1)
	fillEvent(t, regSvc, repos, ev)
	user := seedUser(t, repos, "waiter")

	entry, err := svc.Join(user.ID, JoinWaitlistRequest{EventID: ev.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, entry.Position)
	assert.Equal(t, waitlist.NotifyEmail, entry.NotificationPreference)

	_, waitlisted := eventCounts(t, repos, ev.ID)
	assert.Equal(t, 1, waitlisted)
	assert.Equal(t, []int{1}, notifier.waitlisted)
}

func TestJoinWaitlistPreconditions(t *testing.T) {
	regSvc, svc, repos, _ := newTestServices(t)

	t.Run("rejects joining an event with open seats", func(t *testing.T) {
		ev := seedPublishedEvent(t, repos, 5)
		user := seedUser(t, repos, "eager")

		_, err := svc.Join(user.ID, JoinWaitlistRequest{EventID: ev.ID})
		assert.Equal(t, common.KindInvalidState, common.KindOf(err))
	})

	t.Run("rejects a confirmed attendee", func(t *testing.T) {
		ev := seedPublishedEvent(t, repos, 1)
		user := seedUser(t, repos, "attendee")

		_, err := regSvc.Create(user.ID, CreateRegistrationRequest{EventID: ev.ID})
		require.NoError(t, err)

		_, err = svc.Join(user.ID, JoinWaitlistRequest{EventID: ev.ID})
		assert.Equal(t, common.KindConflict, common.KindOf(err))
	})

	t.Run("rejects a duplicate waitlist entry", func(t *testing.T) {
		ev := seedPublishedEvent(t, repos, 1)
		fillEvent(t, regSvc, repos, ev)
		user := seedUser(t, repos, "repeat")

		_, err := svc.Join(user.ID, JoinWaitlistRequest{EventID: ev.ID})
		require.NoError(t, err)

		_, err = svc.Join(user.ID, JoinWaitlistRequest{EventID: ev.ID})
		assert.Equal(t, common.KindConflict, common.KindOf(err))
	})

	t.Run("rejects an unpublished event", func(t *testing.T) {
		organizer := seedUser(t, repos, "wl-organizer")
		ev := event.New("Hidden", "Not yet visible", organizer.ID, time.Now().AddDate(0, 0, 7), 1)
		require.NoError(t, repos.Events().Create(ev))
		user := seedUser(t, repos, "hopeful")

		_, err := svc.Join(user.ID, JoinWaitlistRequest{EventID: ev.ID})
		assert.Equal(t, common.KindInvalidState, common.KindOf(err))
	})

	t.Run("rejects a bad notification preference", func(t *testing.T) {
		ev := seedPublishedEvent(t, repos, 1)
		user := seedUser(t, repos, "picky")

		_, err := svc.Join(user.ID, JoinWaitlistRequest{
			EventID:                ev.ID,
			NotificationPreference: "carrier-pigeon",
		})
		assert.Equal(t, common.KindValidation, common.KindOf(err))
	})
}

func TestWaitlistPositionsStayContiguous(t *testing.T) {
	regSvc, svc, repos, _ := newTestServices(t)
	ev := seedPublishedEvent(t, repos, 1)
	fillEvent(t, regSvc, repos, ev)

	x := seedUser(t, repos, "x")
	y := seedUser(t, repos, "y")
	z := seedUser(t, repos, "z")

	entryX, err := svc.Join(x.ID, JoinWaitlistRequest{EventID: ev.ID})
	require.NoError(t, err)
	entryY, err := svc.Join(y.ID, JoinWaitlistRequest{EventID: ev.ID})
	require.NoError(t, err)
	entryZ, err := svc.Join(z.ID, JoinWaitlistRequest{EventID: ev.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, entryX.Position)
	assert.Equal(t, 2, entryY.Position)
	assert.Equal(t, 3, entryZ.Position)

	// Y leaves from the middle; X stays put and Z moves up.
	require.NoError(t, svc.Leave(entryY.ID, y.ID))

	entries, err := svc.List(ev.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, x.ID, entries[0].UserID)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, z.ID, entries[1].UserID)
	assert.Equal(t, 2, entries[1].Position)
}

func TestWaitlistRoundTrip(t *testing.T) {
	regSvc, svc, repos, _ := newTestServices(t)
	ev := seedPublishedEvent(t, repos, 1)
	fillEvent(t, regSvc, repos, ev)

	_, before := eventCounts(t, repos, ev.ID)

	user := seedUser(t, repos, "tourist")
	entry, err := svc.Join(user.ID, JoinWaitlistRequest{EventID: ev.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Leave(entry.ID, user.ID))

	_, after := eventCounts(t, repos, ev.ID)
	assert.Equal(t, before, after)

	gone, err := repos.Waitlist().GetByUserAndEvent(user.ID, ev.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Rejoining gets a fresh position consistent with current occupancy.
	again, err := svc.Join(user.ID, JoinWaitlistRequest{EventID: ev.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Position)
}

func TestLeaveWaitlistOwnership(t *testing.T) {
	regSvc, svc, repos, _ := newTestServices(t)
	ev := seedPublishedEvent(t, repos, 1)
	fillEvent(t, regSvc, repos, ev)

	owner := seedUser(t, repos, "owner")
	stranger := seedUser(t, repos, "stranger")

	entry, err := svc.Join(owner.ID, JoinWaitlistRequest{EventID: ev.ID})
	require.NoError(t, err)

	err = svc.Leave(entry.ID, stranger.ID)
	assert.Equal(t, common.KindForbidden, common.KindOf(err))

	err = svc.Leave("22222222-2222-2222-2222-222222222222", owner.ID)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestPeekFirst(t *testing.T) {
	regSvc, svc, repos, _ := newTestServices(t)
	ev := seedPublishedEvent(t, repos, 1)
	fillEvent(t, regSvc, repos, ev)

	head, err := svc.PeekFirst(ev.ID)
	require.NoError(t, err)
	assert.Nil(t, head, "empty waitlist has no head")

	first := seedUser(t, repos, "first")
	second := seedUser(t, repos, "second")
	_, err = svc.Join(first.ID, JoinWaitlistRequest{EventID: ev.ID})
	require.NoError(t, err)
	_, err = svc.Join(second.ID, JoinWaitlistRequest{EventID: ev.ID})
	require.NoError(t, err)

	head, err = svc.PeekFirst(ev.ID)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, first.ID, head.UserID)
}

func TestGetUserWaitlist(t *testing.T) {
	regSvc, svc, repos, _ := newTestServices(t)
	user := seedUser(t, repos, "collector")

	for i := 0; i < 2; i++ {
		ev := seedPublishedEvent(t, repos, 1)
		fillEvent(t, regSvc, repos, ev)
		_, err := svc.Join(user.ID, JoinWaitlistRequest{EventID: ev.ID})
		require.NoError(t, err)
	}

	entries, err := svc.GetUserWaitlist(user.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// failingNotifier errors on waitlist confirmations but delivers
// everything else.
type failingNotifier struct {
	recordingNotifier
}

func (n *failingNotifier) SendWaitlistConfirmation(user *participant.User, ev *event.Event, position int) error {
	return fmt.Errorf("smtp unavailable")
}

func TestJoinSucceedsWhenNotificationFails(t *testing.T) {
	repos := postgres.NewMemoryContainer()
	notifier := &failingNotifier{}
	regSvc := NewRegistrationService(repos, notifier, testConfig())
	svc := NewWaitlistService(repos, notifier)

	ev := seedPublishedEvent(t, repos, 1)
	fillEvent(t, regSvc, repos, ev)
	user := seedUser(t, repos, "unreachable")

	entry, err := svc.Join(user.ID, JoinWaitlistRequest{EventID: ev.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Position)

	_, waitlisted := eventCounts(t, repos, ev.ID)
	assert.Equal(t, 1, waitlisted)
}
