package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/terpspark/terpspark-api/internal/domain/common"
)

func performWithError(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	DomainError(c, err)
	return w
}

func TestDomainErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{common.NotFound("event not found"), http.StatusNotFound},
		{common.InvalidState("not published"), http.StatusUnprocessableEntity},
		{common.Forbidden("not yours"), http.StatusForbidden},
		{common.Conflict("already registered"), http.StatusConflict},
		{common.Validation("bad guest email"), http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := performWithError(tc.err)
		assert.Equal(t, tc.status, w.Code, "error: %v", tc.err)
	}
}

func TestDomainErrorSuggestionHeader(t *testing.T) {
	w := performWithError(common.ConflictWithHint(common.HintJoinWaitlist, "event is full"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, common.HintJoinWaitlist, w.Header().Get(SuggestionHeader))
	assert.Contains(t, w.Body.String(), "event is full")
}

func TestDomainErrorWithoutHintOmitsHeader(t *testing.T) {
	w := performWithError(common.Conflict("already registered"))
	assert.Empty(t, w.Header().Get(SuggestionHeader))
}
