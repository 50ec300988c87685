package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"studyPulseAPI/internal/analytics"
	"studyPulseAPI/middleware"
	"studyPulseAPI/services"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
	streakService    *services.StreakService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService, streakService *services.StreakService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		streakService:    streakService,
	}
}

// GetAnalytics serves the aggregated report for ?period={day|week|month|year}
// (default week), optionally scoped to ?planId=.
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	period, err := analytics.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	planID, ok := parsePlanID(w, r)
	if !ok {
		return
	}

	report, err := h.analyticsService.GetAnalytics(ctx, clerkID, period, planID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func (h *AnalyticsHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	result, err := h.streakService.GetStreak(ctx, clerkID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
