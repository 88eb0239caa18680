package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequired(t *testing.T) {
	assert.NoError(t, ValidateRequired("value", "field"))
	assert.Error(t, ValidateRequired("", "field"))
	assert.Error(t, ValidateRequired("   ", "field"))
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("a1b2c3d4-e5f6-4890-abcd-ef1234567890", "id"))
	assert.Error(t, ValidateUUID("not-a-uuid", "id"))
	assert.Error(t, ValidateUUID("", "id"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("student@umd.edu"))
	assert.Error(t, ValidateEmail("no-at-sign"))
	assert.Error(t, ValidateEmail("@umd.edu"))
	assert.Error(t, ValidateEmail("student@"))
}

func TestEmailDomainApproved(t *testing.T) {
	approved := []string{"umd.edu", "terpmail.umd.edu"}

	assert.True(t, EmailDomainApproved("student@umd.edu", approved))
	assert.True(t, EmailDomainApproved("Student@UMD.EDU", approved))
	assert.True(t, EmailDomainApproved("student@terpmail.umd.edu", approved))

	assert.False(t, EmailDomainApproved("student@gmail.com", approved))
	// Exact match only, no subdomain inheritance.
	assert.False(t, EmailDomainApproved("student@cs.umd.edu", approved))
	assert.False(t, EmailDomainApproved("no-at-sign", approved))
	assert.False(t, EmailDomainApproved("student@umd.edu", nil))
}

func TestValidateEventDate(t *testing.T) {
	now := time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateEventDate(now, now), "today is allowed")
	assert.NoError(t, ValidateEventDate(now.AddDate(0, 0, 1), now))
	assert.Error(t, ValidateEventDate(now.AddDate(0, 0, -1), now))
}
