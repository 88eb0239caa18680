package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	ev := New("Homecoming Concert", "Live music on McKeldin Mall",
		"org-1", time.Now().AddDate(0, 0, 14), 500)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, StatusPending, ev.Status)
	assert.Zero(t, ev.RegisteredCount)
	assert.Zero(t, ev.WaitlistCount)
	assert.NoError(t, ev.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Event {
		return New("Title", "Description", "org-1", time.Now(), 100)
	}

	t.Run("missing title", func(t *testing.T) {
		ev := base()
		ev.Title = ""
		assert.Error(t, ev.Validate())
	})

	t.Run("capacity bounds", func(t *testing.T) {
		ev := base()
		ev.Capacity = 0
		assert.Error(t, ev.Validate())

		ev.Capacity = MaxCapacity + 1
		assert.Error(t, ev.Validate())

		ev.Capacity = MinCapacity
		assert.NoError(t, ev.Validate())

		ev.Capacity = MaxCapacity
		assert.NoError(t, ev.Validate())
	})
}

func TestCapacityHelpers(t *testing.T) {
	ev := &Event{Capacity: 10, RegisteredCount: 7}

	assert.Equal(t, 3, ev.RemainingCapacity())
	assert.False(t, ev.IsFull())

	ev.RegisteredCount = 10
	assert.Zero(t, ev.RemainingCapacity())
	assert.True(t, ev.IsFull())

	// Clamped even if a row ever went over.
	ev.RegisteredCount = 12
	assert.Zero(t, ev.RemainingCapacity())
}

func TestIsPast(t *testing.T) {
	now := time.Date(2026, 8, 26, 23, 30, 0, 0, time.UTC)

	today := &Event{Date: time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)}
	assert.False(t, today.IsPast(now), "same-day events stay open")

	yesterday := &Event{Date: time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)}
	assert.True(t, yesterday.IsPast(now))
}

func TestStatusRoundTrip(t *testing.T) {
	for _, status := range []Status{StatusDraft, StatusPending, StatusPublished, StatusCancelled} {
		parsed, ok := StatusFromString(status.String())
		require.True(t, ok)
		assert.Equal(t, status, parsed)

		value, err := status.Value()
		require.NoError(t, err)

		var scanned Status
		require.NoError(t, scanned.Scan(value))
		assert.Equal(t, status, scanned)
	}
}

func TestStatusJSON(t *testing.T) {
	data, err := StatusPublished.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"published"`, string(data))

	var status Status
	require.NoError(t, status.UnmarshalJSON([]byte(`"cancelled"`)))
	assert.Equal(t, StatusCancelled, status)

	assert.Error(t, status.UnmarshalJSON([]byte(`"nonsense"`)))
}
