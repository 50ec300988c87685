package session

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeFocus      Type = "FOCUS"
	TypeShortBreak Type = "SHORT_BREAK"
	TypeLongBreak  Type = "LONG_BREAK"
)

func (t Type) Valid() bool {
	switch t {
	case TypeFocus, TypeShortBreak, TypeLongBreak:
		return true
	}
	return false
}

// Session is one timed interval, immutable once persisted.
type Session struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	PlanID          *uuid.UUID `json:"plan_id,omitempty" db:"plan_id"`
	Type            Type       `json:"type" db:"type"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	EndedAt         time.Time  `json:"ended_at" db:"ended_at"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	Completed       bool       `json:"completed" db:"completed"`
	Interrupted     bool       `json:"interrupted" db:"interrupted"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// DurationMinutes rounds the wall-clock span to whole minutes, clamping
// clock anomalies to zero.
func DurationMinutes(startedAt, endedAt time.Time) int {
	span := endedAt.Sub(startedAt)
	if span < 0 {
		return 0
	}
	return int(math.Round(span.Minutes()))
}

type RecordSessionRequest struct {
	PlanID      *string   `json:"plan_id,omitempty"`
	Type        Type      `json:"type" validate:"required"`
	StartedAt   time.Time `json:"started_at" validate:"required"`
	EndedAt     time.Time `json:"ended_at" validate:"required"`
	Completed   bool      `json:"completed"`
	Interrupted bool      `json:"interrupted"`
}

type RecordSessionResponse struct {
	ID              *uuid.UUID `json:"id,omitempty"`
	Recorded        bool       `json:"recorded"`
	DurationMinutes int        `json:"duration_minutes"`
}
