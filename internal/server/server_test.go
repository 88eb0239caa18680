package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terpspark/terpspark-api/internal/config"
	"github.com/terpspark/terpspark-api/internal/domain/participant"
	"github.com/terpspark/terpspark-api/internal/middleware/auth"
	"github.com/terpspark/terpspark-api/internal/response"
	"github.com/terpspark/terpspark-api/internal/storage/postgres"
)

func testRouterConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.GinMode = "test"
	cfg.CORS.AllowOrigins = "*"
	cfg.CORS.AllowMethods = "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS"
	cfg.CORS.AllowHeaders = "Origin,Content-Length,Content-Type,Authorization"
	cfg.Email.Mode = "mock"
	cfg.Email.Sender = "events@terpspark.umd.edu"
	cfg.Registration.ApprovedGuestDomains = []string{"umd.edu"}
	cfg.Registration.MaxGuests = 2
	cfg.JWT.Secret = "router-test-secret"
	return cfg
}

func newTestRouter(t *testing.T) (*gin.Engine, *postgres.MemoryContainer, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testRouterConfig()
	repos := postgres.NewMemoryContainer()

	router, err := New(cfg, repos, nil).setupRouter()
	require.NoError(t, err)
	return router, repos, cfg
}

func seedUserWithToken(t *testing.T, repos *postgres.MemoryContainer, cfg *config.Config, name string, role participant.Role) (*participant.User, string) {
	t.Helper()
	user, err := participant.NewUser(name, name+"@umd.edu", "correct-horse-battery")
	require.NoError(t, err)
	user.Role = role
	require.NoError(t, repos.Users().Create(user))

	token, err := auth.IssueToken(cfg.JWT.Secret, user)
	require.NoError(t, err)
	return user, token
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func dataField(t *testing.T, w *httptest.ResponseRecorder, key string) string {
	t.Helper()
	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	val, _ := resp.Data[key].(string)
	return val
}

func TestRegistrationFlowOverHTTP(t *testing.T) {
	router, repos, cfg := newTestRouter(t)

	_, organizerToken := seedUserWithToken(t, repos, cfg, "organizer-http", participant.RoleOrganizer)
	_, aliceToken := seedUserWithToken(t, repos, cfg, "alice-http", participant.RoleStudent)
	_, bobToken := seedUserWithToken(t, repos, cfg, "bob-http", participant.RoleStudent)

	w := doJSON(t, router, http.MethodPost, "/api/events", organizerToken, gin.H{
		"title":       "Robotics Showcase",
		"description": "Club demos in the engineering hall",
		"date":        time.Now().AddDate(0, 0, 7).Format(time.RFC3339),
		"capacity":    1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	eventID := dataField(t, w, "id")
	require.NotEmpty(t, eventID)

	w = doJSON(t, router, http.MethodPost, "/api/events/"+eventID+"/publish", organizerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// No token, no registration.
	w = doJSON(t, router, http.MethodPost, "/api/registrations", "", gin.H{"event_id": eventID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/registrations", aliceToken, gin.H{"event_id": eventID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	aliceRegID := dataField(t, w, "id")
	ticketCode := dataField(t, w, "ticket_code")
	require.NotEmpty(t, ticketCode)

	// The event is now exactly full; the conflict steers Bob to the
	// waitlist via the suggestion header.
	w = doJSON(t, router, http.MethodPost, "/api/registrations", bobToken, gin.H{"event_id": eventID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "join-waitlist", w.Header().Get(response.SuggestionHeader))

	w = doJSON(t, router, http.MethodPost, "/api/waitlist", bobToken, gin.H{"event_id": eventID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The organizer scans Alice's ticket at the door.
	w = doJSON(t, router, http.MethodPost, "/api/registrations/check-in", organizerToken, gin.H{"ticket_code": ticketCode})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "checked_in", dataField(t, w, "check_in_status"))

	w = doJSON(t, router, http.MethodDelete, "/api/registrations/"+aliceRegID, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The freed seat promotes Bob off the waitlist.
	w = doJSON(t, router, http.MethodGet, "/api/registrations?status=confirmed", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listResp struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Equal(t, 1, listResp.Data.Count)
}

func TestPublicEventReads(t *testing.T) {
	router, repos, cfg := newTestRouter(t)

	_, organizerToken := seedUserWithToken(t, repos, cfg, "organizer-public", participant.RoleOrganizer)

	w := doJSON(t, router, http.MethodPost, "/api/events", organizerToken, gin.H{
		"title":       "Open House",
		"description": "Campus tour and info session",
		"date":        time.Now().AddDate(0, 0, 14).Format(time.RFC3339),
		"capacity":    50,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	eventID := dataField(t, w, "id")

	// Unpublished events stay out of the public listing.
	w = doJSON(t, router, http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Zero(t, listResp.Data.Count)

	w = doJSON(t, router, http.MethodPost, "/api/events/"+eventID+"/publish", organizerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Equal(t, 1, listResp.Data.Count)

	w = doJSON(t, router, http.MethodGet, "/api/events/"+eventID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Open House", dataField(t, w, "title"))
}
