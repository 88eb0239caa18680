package common

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindConflict, KindOf(Conflict("duplicate")))
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindInternal, KindOf(fmt.Errorf("plain error")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("creating registration: %w", Forbidden("not yours"))
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestHintOf(t *testing.T) {
	hinted := ConflictWithHint(HintJoinWaitlist, "event is full")
	assert.Equal(t, HintJoinWaitlist, HintOf(hinted))
	assert.Equal(t, KindConflict, KindOf(hinted))

	assert.Empty(t, HintOf(Conflict("plain conflict")))
	assert.Empty(t, HintOf(fmt.Errorf("plain error")))
}

func TestErrorMessage(t *testing.T) {
	err := Conflict("only %d spot(s) remaining", 2)
	assert.Equal(t, "only 2 spot(s) remaining", err.Error())
}
