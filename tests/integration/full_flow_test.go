package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyPulseAPI/handlers"
	"studyPulseAPI/internal/analytics"
	"studyPulseAPI/internal/types/dailystat"
	"studyPulseAPI/internal/streak"
	"studyPulseAPI/internal/types/session"
	"studyPulseAPI/middleware"
	"studyPulseAPI/services"
	"studyPulseAPI/tests/helpers"
)

// TestFullStudyFlow simulates a complete day of studying: record
// intervals, check the streak moved, read daily stats and the report.
func TestFullStudyFlow(t *testing.T) {
	// Setup
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	streakService := services.NewStreakService(pool)
	sessionService := services.NewSessionService(pool, streakService)
	analyticsService := services.NewAnalyticsService(pool, streakService)

	sessionHandler := handlers.NewSessionHandler(sessionService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, streakService)

	clerkID := "user_test_" + time.Now().Format("20060102150405")
	helpers.CreateTestUser(t, pool, clerkID)

	// Step 1: Record a completed focus session
	t.Log("Step 1: Record a completed focus session")

	ended := time.Now()
	started := ended.Add(-25 * time.Minute)
	body := fmt.Sprintf(`{"type": "FOCUS", "started_at": %q, "ended_at": %q, "completed": true}`,
		started.Format(time.RFC3339), ended.Format(time.RFC3339))

	rr1 := doAuthed(sessionHandler.RecordSession, http.MethodPost, "/api/v1/sessions", body, clerkID)
	require.Equal(t, http.StatusCreated, rr1.Code, "Session should be recorded")

	var recorded session.RecordSessionResponse
	require.NoError(t, json.Unmarshal(rr1.Body.Bytes(), &recorded))
	assert.True(t, recorded.Recorded)
	assert.Equal(t, 25, recorded.DurationMinutes)

	// Step 2: Sub-minute intervals are dropped without error
	t.Log("Step 2: Record a sub-minute interval")

	shortBody := fmt.Sprintf(`{"type": "FOCUS", "started_at": %q, "ended_at": %q, "completed": false, "interrupted": true}`,
		ended.Format(time.RFC3339), ended.Add(10*time.Second).Format(time.RFC3339))

	rr2 := doAuthed(sessionHandler.RecordSession, http.MethodPost, "/api/v1/sessions", shortBody, clerkID)
	require.Equal(t, http.StatusOK, rr2.Code)

	var dropped session.RecordSessionResponse
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &dropped))
	assert.False(t, dropped.Recorded)

	// Step 3: The streak counts today
	t.Log("Step 3: Verify streak")

	rr3 := doAuthed(analyticsHandler.GetStreak, http.MethodGet, "/api/v1/streak", "", clerkID)
	require.Equal(t, http.StatusOK, rr3.Code)

	var st streak.StudyStreak
	require.NoError(t, json.Unmarshal(rr3.Body.Bytes(), &st))
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 1, st.TotalStudyDays)

	// Step 4: Daily stats show the focus minutes
	t.Log("Step 4: Verify daily stats")

	rr4 := doAuthed(sessionHandler.GetDailyStats, http.MethodGet, "/api/v1/stats/daily?days=7", "", clerkID)
	require.Equal(t, http.StatusOK, rr4.Code)

	var daily dailystat.DailyStatsResponse
	require.NoError(t, json.Unmarshal(rr4.Body.Bytes(), &daily))
	require.NotEmpty(t, daily.Stats, "Today's stat row should exist")

	today := daily.Stats[len(daily.Stats)-1]
	assert.Equal(t, 25, today.TotalMinutes)
	assert.Equal(t, 1, today.SessionsCompleted)

	// Step 5: The weekly report reflects the session
	t.Log("Step 5: Verify analytics report")

	rr5 := doAuthed(analyticsHandler.GetAnalytics, http.MethodGet, "/api/v1/analytics?period=week", "", clerkID)
	require.Equal(t, http.StatusOK, rr5.Code)

	var report analytics.Report
	require.NoError(t, json.Unmarshal(rr5.Body.Bytes(), &report))
	assert.Equal(t, analytics.PeriodWeek, report.Period)
	assert.Equal(t, 25, report.Overview.TotalMinutes)
	assert.Equal(t, 1, report.Overview.SessionsCompleted)
	require.NotNil(t, report.Streak)
	assert.Equal(t, 1, report.Streak.CurrentStreak)

	// Step 6: Listing sessions returns only the recorded one
	t.Log("Step 6: List sessions")

	rr6 := doAuthed(sessionHandler.ListSessions, http.MethodGet, "/api/v1/sessions", "", clerkID)
	require.Equal(t, http.StatusOK, rr6.Code)

	var sessions []*session.Session
	require.NoError(t, json.Unmarshal(rr6.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, session.TypeFocus, sessions[0].Type)
	assert.True(t, sessions[0].Completed)
}

// TestTimerFlow drives the in-memory timer over HTTP: start, pause,
// settings round-trip.
func TestTimerFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	streakService := services.NewStreakService(pool)
	sessionService := services.NewSessionService(pool, streakService)
	settingsService := services.NewSettingsService(pool)
	timerService := services.NewTimerService(sessionService, settingsService)

	timerHandler := handlers.NewTimerHandler(timerService, settingsService)

	clerkID := "user_test_" + time.Now().Format("20060102150405")
	helpers.CreateTestUser(t, pool, clerkID)

	// Step 1: Shorten the focus length via settings
	t.Log("Step 1: Update timer settings")

	rr1 := doAuthed(timerHandler.UpdateSettings, http.MethodPut, "/api/v1/timer/settings",
		`{"pomodoro_length": 50, "long_break_interval": 2}`, clerkID)
	require.Equal(t, http.StatusOK, rr1.Code)

	// Step 2: Start the timer and check the countdown uses them
	t.Log("Step 2: Start the timer")

	rr2 := doAuthed(timerHandler.StartTimer, http.MethodPost, "/api/v1/timer/start", "", clerkID)
	require.Equal(t, http.StatusOK, rr2.Code)

	var snap services.TimerSnapshot
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &snap))
	assert.True(t, snap.Running)
	assert.Equal(t, 50*time.Minute, snap.Remaining)

	// Step 3: Pause preserves the countdown without recording a session
	t.Log("Step 3: Pause the timer")

	rr3 := doAuthed(timerHandler.PauseTimer, http.MethodPost, "/api/v1/timer/pause", "", clerkID)
	require.Equal(t, http.StatusOK, rr3.Code)

	require.NoError(t, json.Unmarshal(rr3.Body.Bytes(), &snap))
	assert.False(t, snap.Running)
	assert.LessOrEqual(t, snap.Remaining, 50*time.Minute)

	ctx := context.Background()
	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions s JOIN users u ON u.id = s.user_id WHERE u.clerk_id = $1`,
		clerkID).Scan(&count))
	assert.Equal(t, 0, count, "Pause must not finalize a session")
}

func doAuthed(h http.HandlerFunc, method, target, body, clerkID string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}
