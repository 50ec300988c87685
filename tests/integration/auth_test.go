package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyPulseAPI/handlers"
	"studyPulseAPI/middleware"
	"studyPulseAPI/tests/helpers"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestClerkAuthMiddleware_MissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/timer", nil)
	rr := httptest.NewRecorder()

	middleware.ClerkAuthMiddleware(okHandler()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var response map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response["error"], "Authorization header required")
}

func TestClerkAuthMiddleware_MalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/timer", nil)
	req.Header.Set("Authorization", "not-a-bearer-token")
	rr := httptest.NewRecorder()

	middleware.ClerkAuthMiddleware(okHandler()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// A structurally valid JWT signed with the wrong key must not pass Clerk
// verification.
func TestClerkAuthMiddleware_ForgedToken(t *testing.T) {
	token, err := helpers.GenerateMockClerkJWT("user_test_forged")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/timer", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	middleware.ClerkAuthMiddleware(okHandler()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// Handlers answer 401 themselves when the middleware never ran, so a
// misrouted request can't reach a service with no identity.
func TestRecordSession_Unauthenticated(t *testing.T) {
	sessionHandler := handlers.NewSessionHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	rr := httptest.NewRecorder()

	sessionHandler.RecordSession(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var response map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response["error"], "not authenticated")
}

func TestGetAnalytics_Unauthenticated(t *testing.T) {
	analyticsHandler := handlers.NewAnalyticsHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil)
	rr := httptest.NewRecorder()

	analyticsHandler.GetAnalytics(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
