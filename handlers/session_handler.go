package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"studyPulseAPI/internal/types/dailystat"
	"studyPulseAPI/internal/types/session"
	"studyPulseAPI/middleware"
	"studyPulseAPI/services"
)

type SessionHandler struct {
	sessionService *services.SessionService
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// RecordSession persists one client-recorded interval. Sub-minute
// intervals come back with recorded=false and no error; a store failure
// is a 503 so the client retries instead of dropping the interval.
func (h *SessionHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req session.RecordSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("RecordSession Handler: Failed to decode request body: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !req.Type.Valid() {
		respondWithError(w, http.StatusBadRequest, "type must be FOCUS, SHORT_BREAK or LONG_BREAK")
		return
	}
	if req.StartedAt.IsZero() || req.EndedAt.IsZero() {
		respondWithError(w, http.StatusBadRequest, "started_at and ended_at are required")
		return
	}
	if req.EndedAt.Before(req.StartedAt) {
		respondWithError(w, http.StatusBadRequest, "ended_at must not precede started_at")
		return
	}
	if req.PlanID != nil {
		if _, err := uuid.Parse(*req.PlanID); err != nil {
			respondWithError(w, http.StatusBadRequest, "plan_id must be a valid UUID")
			return
		}
	}

	result, err := h.sessionService.Record(ctx, clerkID, &req)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusServiceUnavailable, "Failed to record session, please retry")
		return
	}

	status := http.StatusCreated
	if !result.Recorded {
		status = http.StatusOK
	}
	respondWithJSON(w, status, result)
}

func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	now := time.Now()
	from := now.AddDate(0, 0, -7)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "from must be an RFC3339 timestamp")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "to must be an RFC3339 timestamp")
			return
		}
		to = parsed
	}
	if to.Before(from) {
		respondWithError(w, http.StatusBadRequest, "to must not precede from")
		return
	}

	planID, ok := parsePlanID(w, r)
	if !ok {
		return
	}

	sessions, err := h.sessionService.ListSessions(ctx, clerkID, from, to, planID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []*session.Session{}
	}
	respondWithJSON(w, http.StatusOK, sessions)
}

func (h *SessionHandler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 365 {
			respondWithError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = parsed
	}

	stats, err := h.sessionService.GetDailyStats(ctx, clerkID, days)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stats == nil {
		stats = []*dailystat.DailyStat{}
	}
	respondWithJSON(w, http.StatusOK, dailystat.DailyStatsResponse{Days: days, Stats: stats})
}

// RebuildDailyStat recomputes one day's cache row from raw sessions.
func (h *SessionHandler) RebuildDailyStat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	raw := r.URL.Query().Get("date")
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, "date query parameter is required (YYYY-MM-DD)")
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	if err := h.sessionService.RebuildDailyStat(ctx, clerkID, date); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Daily stat rebuilt", "date": raw})
}

func parsePlanID(w http.ResponseWriter, r *http.Request) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get("planId")
	if raw == "" {
		return nil, true
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "planId must be a valid UUID")
		return nil, false
	}
	return &parsed, true
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
