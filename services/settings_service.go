package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyPulseAPI/internal/timer"
	"studyPulseAPI/internal/types/settings"
)

type SettingsService struct {
	db *pgxpool.Pool
}

func NewSettingsService(db *pgxpool.Pool) *SettingsService {
	return &SettingsService{db: db}
}

// GetSettings returns the user's timer settings, falling back to the
// defaults when none are stored yet.
func (s *SettingsService) GetSettings(ctx context.Context, clerkID string) (*settings.TimerSettings, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	query := `
		SELECT id, user_id, pomodoro_length, short_break_length, long_break_length,
			long_break_interval, auto_start_breaks, auto_start_pomodoros, sound_enabled, updated_at
		FROM timer_settings
		WHERE user_id = $1
	`

	var st settings.TimerSettings
	err = s.db.QueryRow(ctx, query, userID).Scan(&st.ID, &st.UserID,
		&st.PomodoroLength, &st.ShortBreakLength, &st.LongBreakLength,
		&st.LongBreakInterval, &st.AutoStartBreaks, &st.AutoStartPomodoros,
		&st.SoundEnabled, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			defaults := settings.Defaults()
			defaults.UserID = userID
			return &defaults, nil
		}
		return nil, fmt.Errorf("failed to get timer settings: %w", err)
	}
	return &st, nil
}

// UpdateSettings merges the request onto the stored settings and upserts
// the row.
func (s *SettingsService) UpdateSettings(ctx context.Context, clerkID string, req *settings.UpdateSettingsRequest) (*settings.TimerSettings, error) {
	current, err := s.GetSettings(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	next := req.Apply(*current)

	query := `
		INSERT INTO timer_settings (user_id, pomodoro_length, short_break_length, long_break_length,
			long_break_interval, auto_start_breaks, auto_start_pomodoros, sound_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			pomodoro_length = $2,
			short_break_length = $3,
			long_break_length = $4,
			long_break_interval = $5,
			auto_start_breaks = $6,
			auto_start_pomodoros = $7,
			sound_enabled = $8,
			updated_at = NOW()
		RETURNING id, updated_at
	`

	err = s.db.QueryRow(ctx, query, next.UserID, next.PomodoroLength,
		next.ShortBreakLength, next.LongBreakLength, next.LongBreakInterval,
		next.AutoStartBreaks, next.AutoStartPomodoros, next.SoundEnabled).
		Scan(&next.ID, &next.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update timer settings: %w", err)
	}
	return &next, nil
}

// TimerConfig converts stored settings into state machine configuration
// plus the auto-start flags.
func (s *SettingsService) TimerConfig(ctx context.Context, clerkID string) (timer.Config, bool, bool, error) {
	st, err := s.GetSettings(ctx, clerkID)
	if err != nil {
		return timer.Config{}, false, false, err
	}

	cfg := timer.Config{
		FocusLength:       time.Duration(st.PomodoroLength) * time.Minute,
		ShortBreakLength:  time.Duration(st.ShortBreakLength) * time.Minute,
		LongBreakLength:   time.Duration(st.LongBreakLength) * time.Minute,
		LongBreakInterval: st.LongBreakInterval,
	}
	return cfg, st.AutoStartBreaks, st.AutoStartPomodoros, nil
}
