package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistration(t *testing.T) {
	reg := New("user-1", "event-1", "TKT-1756200000-a1b2c3d4", "payload",
		[]Guest{{Name: "Guest", Email: "guest@umd.edu"}}, []string{"session-1"})

	assert.NotEmpty(t, reg.ID)
	assert.Equal(t, StatusConfirmed, reg.Status)
	assert.Equal(t, CheckInNotCheckedIn, reg.CheckInStatus)
	assert.False(t, reg.IsCancelled())
	assert.Equal(t, 2, reg.SeatCount())
}

func TestSeatCount(t *testing.T) {
	solo := New("user-1", "event-1", "code", "", nil, nil)
	assert.Equal(t, 1, solo.SeatCount())

	party := New("user-1", "event-1", "code", "",
		[]Guest{{Email: "a@umd.edu"}, {Email: "b@umd.edu"}}, nil)
	assert.Equal(t, 3, party.SeatCount())
}

func TestGuestListEmails(t *testing.T) {
	guests := GuestList{
		{Name: "A", Email: "Upper@UMD.edu"},
		{Name: "B", Email: "lower@umd.edu"},
	}
	assert.Equal(t, []string{"upper@umd.edu", "lower@umd.edu"}, guests.Emails())
}

func TestGuestListColumnRoundTrip(t *testing.T) {
	guests := GuestList{{Name: "A", Email: "a@umd.edu"}}

	value, err := guests.Value()
	require.NoError(t, err)

	var scanned GuestList
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, guests, scanned)

	var empty GuestList
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)
}

func TestStatusFromString(t *testing.T) {
	status, ok := StatusFromString("confirmed")
	assert.True(t, ok)
	assert.Equal(t, StatusConfirmed, status)

	status, ok = StatusFromString("cancelled")
	assert.True(t, ok)
	assert.Equal(t, StatusCancelled, status)

	_, ok = StatusFromString("all")
	assert.False(t, ok)
	_, ok = StatusFromString("")
	assert.False(t, ok)
}
