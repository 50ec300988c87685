package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"studyPulseAPI/internal/types/settings"
	"studyPulseAPI/middleware"
	"studyPulseAPI/services"
)

type TimerHandler struct {
	timerService    *services.TimerService
	settingsService *services.SettingsService
}

func NewTimerHandler(timerService *services.TimerService, settingsService *services.SettingsService) *TimerHandler {
	return &TimerHandler{
		timerService:    timerService,
		settingsService: settingsService,
	}
}

type startTimerRequest struct {
	PlanID *string `json:"plan_id,omitempty"`
}

func (h *TimerHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req startTimerRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	snap, err := h.timerService.Start(ctx, clerkID, req.PlanID)
	if err != nil {
		respondTimerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

func (h *TimerHandler) PauseTimer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.timerService.Pause)
}

func (h *TimerHandler) ResetTimer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.timerService.Reset)
}

func (h *TimerHandler) SkipTimer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.timerService.Skip)
}

func (h *TimerHandler) GetTimerState(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.timerService.State)
}

func (h *TimerHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*services.TimerSnapshot, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	snap, err := op(ctx, clerkID)
	if err != nil {
		respondTimerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

func (h *TimerHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	result, err := h.settingsService.GetSettings(ctx, clerkID)
	if err != nil {
		respondTimerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *TimerHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req settings.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.settingsService.UpdateSettings(ctx, clerkID, &req)
	if err != nil {
		respondTimerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func respondTimerError(w http.ResponseWriter, err error) {
	if err == services.ErrUserNotFound {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	respondWithError(w, http.StatusInternalServerError, err.Error())
}
