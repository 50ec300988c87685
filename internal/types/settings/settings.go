package settings

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimerSettings is per-user pomodoro configuration. Lengths are minutes.
type TimerSettings struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	UserID             uuid.UUID `json:"user_id" db:"user_id"`
	PomodoroLength     int       `json:"pomodoro_length" db:"pomodoro_length"`
	ShortBreakLength   int       `json:"short_break_length" db:"short_break_length"`
	LongBreakLength    int       `json:"long_break_length" db:"long_break_length"`
	LongBreakInterval  int       `json:"long_break_interval" db:"long_break_interval"`
	AutoStartBreaks    bool      `json:"auto_start_breaks" db:"auto_start_breaks"`
	AutoStartPomodoros bool      `json:"auto_start_pomodoros" db:"auto_start_pomodoros"`
	SoundEnabled       bool      `json:"sound_enabled" db:"sound_enabled"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

func Defaults() TimerSettings {
	return TimerSettings{
		PomodoroLength:    25,
		ShortBreakLength:  5,
		LongBreakLength:   15,
		LongBreakInterval: 4,
		SoundEnabled:      true,
	}
}

type UpdateSettingsRequest struct {
	PomodoroLength     *int  `json:"pomodoro_length,omitempty"`
	ShortBreakLength   *int  `json:"short_break_length,omitempty"`
	LongBreakLength    *int  `json:"long_break_length,omitempty"`
	LongBreakInterval  *int  `json:"long_break_interval,omitempty"`
	AutoStartBreaks    *bool `json:"auto_start_breaks,omitempty"`
	AutoStartPomodoros *bool `json:"auto_start_pomodoros,omitempty"`
	SoundEnabled       *bool `json:"sound_enabled,omitempty"`
}

func (r *UpdateSettingsRequest) Validate() error {
	for name, v := range map[string]*int{
		"pomodoro_length":     r.PomodoroLength,
		"short_break_length":  r.ShortBreakLength,
		"long_break_length":   r.LongBreakLength,
		"long_break_interval": r.LongBreakInterval,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be a positive integer", name)
		}
	}
	return nil
}

// Apply merges the request onto existing settings.
func (r *UpdateSettingsRequest) Apply(s TimerSettings) TimerSettings {
	if r.PomodoroLength != nil {
		s.PomodoroLength = *r.PomodoroLength
	}
	if r.ShortBreakLength != nil {
		s.ShortBreakLength = *r.ShortBreakLength
	}
	if r.LongBreakLength != nil {
		s.LongBreakLength = *r.LongBreakLength
	}
	if r.LongBreakInterval != nil {
		s.LongBreakInterval = *r.LongBreakInterval
	}
	if r.AutoStartBreaks != nil {
		s.AutoStartBreaks = *r.AutoStartBreaks
	}
	if r.AutoStartPomodoros != nil {
		s.AutoStartPomodoros = *r.AutoStartPomodoros
	}
	if r.SoundEnabled != nil {
		s.SoundEnabled = *r.SoundEnabled
	}
	return s
}
