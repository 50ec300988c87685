package dailystat

import (
	"time"

	"github.com/google/uuid"
)

// DailyStat is the per-(user, date) rollup. It is a rebuildable cache
// over raw sessions, never the source of truth.
type DailyStat struct {
	ID                uuid.UUID `json:"id" db:"id"`
	UserID            uuid.UUID `json:"user_id" db:"user_id"`
	Date              time.Time `json:"date" db:"date"`
	TotalMinutes      int       `json:"total_minutes" db:"total_minutes"`
	SessionsCompleted int       `json:"sessions_completed" db:"sessions_completed"`
	TasksCompleted    int       `json:"tasks_completed" db:"tasks_completed"`
	FocusScore        int       `json:"focus_score" db:"focus_score"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

type DailyStatsResponse struct {
	Days  int          `json:"days"`
	Stats []*DailyStat `json:"stats"`
}
