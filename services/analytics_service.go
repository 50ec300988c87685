package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"studyPulseAPI/internal/analytics"
	"studyPulseAPI/internal/types/session"
	"studyPulseAPI/internal/types/task"
)

const reportCacheTTL = 5 * time.Minute

// AnalyticsService aggregates raw sessions and tasks into reports. Reads
// are side-effect free; the optional redis cache only trades freshness
// for latency and the service degrades to recomputing when it is absent
// or failing.
type AnalyticsService struct {
	db            *pgxpool.Pool
	cache         *redis.Client
	streakService *StreakService
}

func NewAnalyticsService(db *pgxpool.Pool, streakService *StreakService) *AnalyticsService {
	return &AnalyticsService{db: db, streakService: streakService}
}

// SetCache enables the report cache.
func (s *AnalyticsService) SetCache(client *redis.Client) {
	s.cache = client
}

func reportCacheKey(userID uuid.UUID, period analytics.Period, planID *uuid.UUID) string {
	plan := "all"
	if planID != nil {
		plan = planID.String()
	}
	return fmt.Sprintf("analytics:%s:%s:%s", userID, period, plan)
}

// GetAnalytics builds the report for one user and period, optionally
// scoped to a plan.
func (s *AnalyticsService) GetAnalytics(ctx context.Context, clerkID string, period analytics.Period, planID *uuid.UUID) (*analytics.Report, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	cacheKey := reportCacheKey(userID, period, planID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var report analytics.Report
			if err := json.Unmarshal(cached, &report); err == nil {
				return &report, nil
			}
		}
	}

	now := time.Now()
	windowStart := analytics.WindowStart(period, now)
	prevStart := windowStart.Add(-now.Sub(windowStart))

	sessions, err := s.sessionsInWindow(ctx, userID, windowStart, now, planID)
	if err != nil {
		return nil, err
	}
	prevSessions, err := s.sessionsInWindow(ctx, userID, prevStart, windowStart, planID)
	if err != nil {
		return nil, err
	}

	totalTasks, completedTasks, tasksByDate, err := s.taskCounts(ctx, userID, windowStart, now, planID)
	if err != nil {
		return nil, err
	}

	report := analytics.Compute(analytics.Input{
		Period:               period,
		Now:                  now,
		WindowStart:          windowStart,
		Sessions:             sessions,
		PrevSessions:         prevSessions,
		TotalTasks:           totalTasks,
		CompletedTasks:       completedTasks,
		TasksCompletedByDate: tasksByDate,
	})

	if st, err := s.streakService.getByUserID(ctx, userID); err != nil {
		log.Printf("AnalyticsService: streak snapshot failed for %s: %v", userID, err)
	} else {
		report.Streak = st
	}

	if plans, err := s.planProgress(ctx, userID, planID); err != nil {
		log.Printf("AnalyticsService: plan progress failed for %s: %v", userID, err)
	} else {
		report.Plans = plans
	}

	if err := s.attachAchievements(ctx, userID, report); err != nil {
		log.Printf("AnalyticsService: achievements count failed for %s: %v", userID, err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, reportCacheTTL).Err(); err != nil {
				log.Printf("AnalyticsService: report cache write failed: %v", err)
			}
		}
	}

	return report, nil
}

func (s *AnalyticsService) sessionsInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time, planID *uuid.UUID) ([]*session.Session, error) {
	query := `
		SELECT id, user_id, plan_id, type, started_at, ended_at, duration_minutes, completed, interrupted, created_at
		FROM sessions
		WHERE user_id = $1 AND started_at >= $2 AND started_at < $3
			AND ($4::uuid IS NULL OR plan_id = $4)
		ORDER BY started_at ASC
	`

	rows, err := s.db.Query(ctx, query, userID, from, to, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// taskCounts reports tasks created in the window, how many were
// completed in it, and completions bucketed by local date.
func (s *AnalyticsService) taskCounts(ctx context.Context, userID uuid.UUID, from, to time.Time, planID *uuid.UUID) (int, int, map[string]int, error) {
	var total, completed int
	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= $2 AND created_at < $3),
			COUNT(*) FILTER (WHERE completed = true AND completed_at >= $2 AND completed_at < $3)
		FROM tasks
		WHERE user_id = $1 AND ($4::uuid IS NULL OR plan_id = $4)
	`, userID, from, to, planID).Scan(&total, &completed)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	byDate := make(map[string]int)
	rows, err := s.db.Query(ctx, `
		SELECT completed_at::date, COUNT(*)
		FROM tasks
		WHERE user_id = $1 AND completed = true
			AND completed_at >= $2 AND completed_at < $3
			AND ($4::uuid IS NULL OR plan_id = $4)
		GROUP BY completed_at::date
	`, userID, from, to, planID)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("failed to bucket task completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var date time.Time
		var count int
		if err := rows.Scan(&date, &count); err != nil {
			return 0, 0, nil, fmt.Errorf("failed to scan task bucket: %w", err)
		}
		byDate[date.Format("2006-01-02")] = count
	}

	return total, completed, byDate, rows.Err()
}

func (s *AnalyticsService) planProgress(ctx context.Context, userID uuid.UUID, planID *uuid.UUID) ([]*task.PlanProgress, error) {
	query := `
		SELECT p.id, p.name, COUNT(t.id), COUNT(t.id) FILTER (WHERE t.completed = true)
		FROM study_plans p
		LEFT JOIN tasks t ON t.plan_id = p.id
		WHERE p.user_id = $1 AND ($2::uuid IS NULL OR p.id = $2)
		GROUP BY p.id, p.name
		ORDER BY p.name
	`

	rows, err := s.db.Query(ctx, query, userID, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan progress: %w", err)
	}
	defer rows.Close()

	var plans []*task.PlanProgress
	for rows.Next() {
		var p task.PlanProgress
		if err := rows.Scan(&p.PlanID, &p.Name, &p.TotalTasks, &p.CompletedTasks); err != nil {
			return nil, fmt.Errorf("failed to scan plan progress: %w", err)
		}
		if p.TotalTasks > 0 {
			p.ProgressPercent = int(math.Round(float64(p.CompletedTasks) / float64(p.TotalTasks) * 100))
		}
		plans = append(plans, &p)
	}
	return plans, rows.Err()
}

func (s *AnalyticsService) attachAchievements(ctx context.Context, userID uuid.UUID, report *analytics.Report) error {
	var totalSessions, totalMinutes int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(duration_minutes), 0)
		FROM sessions
		WHERE user_id = $1 AND type = 'FOCUS' AND completed = true
	`, userID).Scan(&totalSessions, &totalMinutes)
	if err != nil {
		return err
	}

	longest := 0
	if report.Streak != nil {
		longest = report.Streak.LongestStreak
	}
	report.AchievementsCount = analytics.AchievementsCount(totalSessions, totalMinutes, longest)
	return nil
}
