package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"studyPulseAPI/internal/streak"
	"studyPulseAPI/internal/types/session"
	"studyPulseAPI/internal/types/task"
	"studyPulseAPI/utils"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return Period(raw), nil
	case "":
		return PeriodWeek, nil
	}
	return "", fmt.Errorf("invalid period %q: must be one of day, week, month, year", raw)
}

// WindowStart maps a period to its look-back window start: same-day for
// "day", otherwise a fixed number of calendar days back from now.
func WindowStart(p Period, now time.Time) time.Time {
	switch p {
	case PeriodDay:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case PeriodMonth:
		return now.AddDate(0, 0, -30)
	case PeriodYear:
		return now.AddDate(0, 0, -365)
	default:
		return now.AddDate(0, 0, -7)
	}
}

type Overview struct {
	TotalMinutes       int `json:"total_minutes"`
	SessionsCompleted  int `json:"sessions_completed"`
	AvgSessionLength   int `json:"avg_session_length"`
	TotalTasks         int `json:"total_tasks"`
	CompletedTasks     int `json:"completed_tasks"`
	TaskCompletionRate int `json:"task_completion_rate"`
}

// Trends are period-over-period deltas in whole percent. Unlike rates
// they can be negative: a decline reads as a negative percent.
type Trends struct {
	MinutesChangePercent  int `json:"minutes_change_percent"`
	SessionsChangePercent int `json:"sessions_change_percent"`
}

type DailyBucket struct {
	Date           string `json:"date"` // ISO YYYY-MM-DD, local time
	Minutes        int    `json:"minutes"`
	Sessions       int    `json:"sessions"`
	TasksCompleted int    `json:"tasks_completed"`
}

type HourBucket struct {
	Hour    int `json:"hour"`
	Minutes int `json:"minutes"`
}

type WeekdayBucket struct {
	Weekday string `json:"weekday"`
	Minutes int    `json:"minutes"`
}

type Report struct {
	Period             Period               `json:"period"`
	GeneratedAt        time.Time            `json:"generated_at"`
	Overview           Overview             `json:"overview"`
	Trends             Trends               `json:"trends"`
	Streak             *streak.StudyStreak  `json:"streak,omitempty"`
	DailyBreakdown     []DailyBucket        `json:"daily_breakdown"`
	HourlyDistribution []HourBucket         `json:"hourly_distribution"`
	PeakHours          []int                `json:"peak_hours"`
	ByDayOfWeek        []WeekdayBucket      `json:"by_day_of_week"`
	MostProductiveDay  string               `json:"most_productive_day"`
	ConsistencyScore   int                  `json:"consistency_score"`
	FocusScore         int                  `json:"focus_score"`
	Insights           []string             `json:"insights"`
	AchievementsCount  int                  `json:"achievements_count"`
	Plans              []*task.PlanProgress `json:"plans,omitempty"`
}

// Input carries everything Compute needs, pre-fetched by the caller so
// the aggregation itself is pure and side-effect free.
type Input struct {
	Period      Period
	Now         time.Time
	WindowStart time.Time

	// Sessions in [WindowStart, Now); PrevSessions in the equal-length
	// window immediately before.
	Sessions     []*session.Session
	PrevSessions []*session.Session

	TotalTasks           int
	CompletedTasks       int
	TasksCompletedByDate map[string]int

	Weights utils.ScoreWeights
}

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Compute aggregates one user's window into a report. Only completed
// focus sessions count toward minutes and session totals; zero
// denominators never fault.
func Compute(in Input) *Report {
	if in.Weights == (utils.ScoreWeights{}) {
		in.Weights = utils.DefaultScoreWeights
	}

	focus := focusSessions(in.Sessions)
	prevFocus := focusSessions(in.PrevSessions)

	totalMinutes := 0
	for _, s := range focus {
		totalMinutes += s.DurationMinutes
	}
	prevMinutes := 0
	for _, s := range prevFocus {
		prevMinutes += s.DurationMinutes
	}

	avg := 0
	if len(focus) > 0 {
		avg = int(math.Round(float64(totalMinutes) / float64(len(focus))))
	}

	taskRate := ratePercent(in.CompletedTasks, in.TotalTasks)

	daily := dailyBreakdown(focus, in.TasksCompletedByDate)
	hourly, peaks := hourlyDistribution(focus)
	weekdays, bestDay := byDayOfWeek(focus)

	consistency := consistencyScore(len(daily), expectedDays(in.WindowStart, in.Now))
	score := utils.FocusScore(taskRate, consistency, in.Weights)

	r := &Report{
		Period:      in.Period,
		GeneratedAt: in.Now,
		Overview: Overview{
			TotalMinutes:       totalMinutes,
			SessionsCompleted:  len(focus),
			AvgSessionLength:   avg,
			TotalTasks:         in.TotalTasks,
			CompletedTasks:     in.CompletedTasks,
			TaskCompletionRate: taskRate,
		},
		Trends: Trends{
			MinutesChangePercent:  trendPercent(totalMinutes, prevMinutes),
			SessionsChangePercent: trendPercent(len(focus), len(prevFocus)),
		},
		DailyBreakdown:     daily,
		HourlyDistribution: hourly,
		PeakHours:          peaks,
		ByDayOfWeek:        weekdays,
		MostProductiveDay:  bestDay,
		ConsistencyScore:   consistency,
		FocusScore:         score,
	}
	r.Insights = insights(r)
	return r
}

func focusSessions(all []*session.Session) []*session.Session {
	out := make([]*session.Session, 0, len(all))
	for _, s := range all {
		if s != nil && s.Type == session.TypeFocus && s.Completed {
			out = append(out, s)
		}
	}
	return out
}

func ratePercent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	rate := int(math.Round(float64(part) / float64(whole) * 100))
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

// trendPercent compares a value against the previous period: 100 when
// something appeared from nothing, 0 when both periods are empty.
func trendPercent(current, previous int) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}

func expectedDays(windowStart, now time.Time) int {
	days := int(streak.DateOnly(now).Sub(streak.DateOnly(windowStart)).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

func consistencyScore(daysWithActivity, expected int) int {
	if expected <= 0 {
		return 0
	}
	score := int(math.Round(float64(daysWithActivity) / float64(expected) * 100))
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

func dailyBreakdown(focus []*session.Session, tasksByDate map[string]int) []DailyBucket {
	byDate := make(map[string]*DailyBucket)
	for _, s := range focus {
		key := s.StartedAt.Format("2006-01-02")
		b, ok := byDate[key]
		if !ok {
			b = &DailyBucket{Date: key, TasksCompleted: tasksByDate[key]}
			byDate[key] = b
		}
		b.Minutes += s.DurationMinutes
		b.Sessions++
	}

	out := make([]DailyBucket, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// hourlyDistribution buckets focus minutes by local start hour and picks
// the top three hours; ties go to the earlier hour.
func hourlyDistribution(focus []*session.Session) ([]HourBucket, []int) {
	var minutes [24]int
	for _, s := range focus {
		minutes[s.StartedAt.Hour()] += s.DurationMinutes
	}

	buckets := make([]HourBucket, 24)
	for h := 0; h < 24; h++ {
		buckets[h] = HourBucket{Hour: h, Minutes: minutes[h]}
	}

	order := make([]int, 24)
	for h := range order {
		order[h] = h
	}
	sort.SliceStable(order, func(i, j int) bool {
		return minutes[order[i]] > minutes[order[j]]
	})

	peaks := make([]int, 0, 3)
	for _, h := range order[:3] {
		if minutes[h] > 0 {
			peaks = append(peaks, h)
		}
	}
	return buckets, peaks
}

func byDayOfWeek(focus []*session.Session) ([]WeekdayBucket, string) {
	var minutes [7]int
	for _, s := range focus {
		minutes[int(s.StartedAt.Weekday())] += s.DurationMinutes
	}

	buckets := make([]WeekdayBucket, 7)
	best := 0
	for d := 0; d < 7; d++ {
		buckets[d] = WeekdayBucket{Weekday: weekdayNames[d], Minutes: minutes[d]}
		if minutes[d] > minutes[best] {
			best = d
		}
	}

	if minutes[best] == 0 {
		return buckets, ""
	}
	return buckets, weekdayNames[best]
}

// AchievementsCount derives how many all-time milestones a user has
// unlocked from session volume and streak length.
func AchievementsCount(totalSessions, totalMinutes, longestStreak int) int {
	count := 0
	for _, threshold := range []int{1, 10, 50, 100, 500} {
		if totalSessions >= threshold {
			count++
		}
	}
	for _, threshold := range []int{60, 600, 3000, 10000} {
		if totalMinutes >= threshold {
			count++
		}
	}
	for _, threshold := range []int{3, 7, 30, 100, 365} {
		if longestStreak >= threshold {
			count++
		}
	}
	return count
}

func insights(r *Report) []string {
	var out []string
	if len(r.PeakHours) > 0 {
		out = append(out, fmt.Sprintf("Your most focused hour is %02d:00.", r.PeakHours[0]))
	}
	if r.MostProductiveDay != "" {
		out = append(out, fmt.Sprintf("%s is your most productive day.", r.MostProductiveDay))
	}
	switch {
	case r.ConsistencyScore >= 80:
		out = append(out, "You studied almost every day this period. Keep it up!")
	case r.ConsistencyScore > 0 && r.ConsistencyScore < 30:
		out = append(out, "Short daily sessions beat rare long ones. Try studying a little more often.")
	}
	if r.Overview.TotalTasks > 0 && r.Overview.TaskCompletionRate < 50 {
		out = append(out, "Less than half of your tasks got done. Consider smaller tasks.")
	}
	return out
}
