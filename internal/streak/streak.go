package streak

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// StudyStreak is the per-user singleton tracking consecutive study days.
type StudyStreak struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	CurrentStreak  int        `json:"current_streak" db:"current_streak"`
	LongestStreak  int        `json:"longest_streak" db:"longest_streak"`
	LastStudyDate  *time.Time `json:"last_study_date" db:"last_study_date"`
	TotalStudyDays int        `json:"total_study_days" db:"total_study_days"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Outcome describes what Advance did with an activity date.
type Outcome int

const (
	// OutcomeUnchanged - repeat activity on an already counted day.
	OutcomeUnchanged Outcome = iota
	// OutcomeStarted - first ever study day.
	OutcomeStarted
	// OutcomeExtended - consecutive day, streak grew by one.
	OutcomeExtended
	// OutcomeReset - gap of more than one day, streak restarted at 1.
	OutcomeReset
	// OutcomeBackfill - activity date older than the last study date.
	// Backfilled history never mutates streak state.
	OutcomeBackfill
)

// DateOnly truncates a timestamp to its calendar day, dropping
// time-of-day in the timestamp's own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// gapDays counts whole calendar days between the two timestamps' days.
// The midnights may live in different locations (client-posted offsets
// vs the store's UTC dates) or be separated by a DST shift, so the span
// is rounded to the nearest day instead of truncated.
func gapDays(from, to time.Time) int {
	return int(math.Round(DateOnly(to).Sub(DateOnly(from)).Hours() / 24))
}

// Advance applies one day of qualifying study activity. Same-day repeats
// are idempotent, a one-day gap extends the streak, a longer gap resets
// it to 1 (never 0), and out-of-order backfills are no-ops.
func Advance(s StudyStreak, activityDate time.Time) (StudyStreak, Outcome) {
	day := DateOnly(activityDate)

	if s.LastStudyDate == nil {
		s.CurrentStreak = 1
		s.LastStudyDate = &day
		s.TotalStudyDays++
		if s.LongestStreak < 1 {
			s.LongestStreak = 1
		}
		return s, OutcomeStarted
	}

	gap := gapDays(*s.LastStudyDate, day)
	switch {
	case gap == 0:
		return s, OutcomeUnchanged
	case gap < 0:
		return s, OutcomeBackfill
	case gap == 1:
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastStudyDate = &day
	s.TotalStudyDays++

	if gap == 1 {
		return s, OutcomeExtended
	}
	return s, OutcomeReset
}
