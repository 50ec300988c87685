package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyPulseAPI/internal/streak"
	"studyPulseAPI/internal/types/dailystat"
	"studyPulseAPI/internal/types/session"
	"studyPulseAPI/middleware"
)

var ErrUserNotFound = errors.New("user not found")

// SessionService is the session recorder: it persists immutable interval
// rows and keeps the DailyStat cache and streak state fed as best-effort
// side effects. Sessions are the source of truth; everything derived can
// be rebuilt from them.
type SessionService struct {
	db            *pgxpool.Pool
	streakService *StreakService
}

func NewSessionService(db *pgxpool.Pool, streakService *StreakService) *SessionService {
	return &SessionService{db: db, streakService: streakService}
}

func (s *SessionService) resolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

// Record persists one finished interval. Intervals shorter than a minute
// are dropped silently (accidental starts, not an error) and report
// Recorded=false. A store failure is returned to the caller so the
// interval can be retried; nothing derived is updated in that case.
func (s *SessionService) Record(ctx context.Context, clerkID string, req *session.RecordSessionRequest) (*session.RecordSessionResponse, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	duration := session.DurationMinutes(req.StartedAt, req.EndedAt)
	if duration < 1 {
		return &session.RecordSessionResponse{Recorded: false, DurationMinutes: duration}, nil
	}

	var planID *uuid.UUID
	if req.PlanID != nil {
		parsed, err := uuid.Parse(*req.PlanID)
		if err != nil {
			return nil, fmt.Errorf("invalid plan id: %w", err)
		}
		planID = &parsed
	}

	query := `
		INSERT INTO sessions (user_id, plan_id, type, started_at, ended_at, duration_minutes, completed, interrupted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id uuid.UUID
	err = s.db.QueryRow(ctx, query, userID, planID, req.Type, req.StartedAt,
		req.EndedAt, duration, req.Completed, req.Interrupted).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	middleware.RecordSessionPersisted(string(req.Type))

	// Derived state is cache, not truth: failures here are logged and the
	// write still succeeds. The aggregator recomputes from raw sessions.
	if req.Type == session.TypeFocus && req.Completed {
		if err := s.upsertDailyStat(ctx, userID, req.StartedAt, duration); err != nil {
			log.Printf("SessionService: daily stat upsert failed for user %s: %v", userID, err)
		}
		if s.streakService != nil {
			if _, err := s.streakService.UpdateOnActivity(ctx, userID, req.StartedAt); err != nil {
				log.Printf("SessionService: streak update failed for user %s: %v", userID, err)
			}
		}
	}

	return &session.RecordSessionResponse{ID: &id, Recorded: true, DurationMinutes: duration}, nil
}

func (s *SessionService) upsertDailyStat(ctx context.Context, userID uuid.UUID, startedAt time.Time, minutes int) error {
	query := `
		INSERT INTO daily_stats (user_id, date, total_minutes, sessions_completed)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, date)
		DO UPDATE SET
			total_minutes = daily_stats.total_minutes + $3,
			sessions_completed = daily_stats.sessions_completed + 1,
			updated_at = NOW()
	`
	_, err := s.db.Exec(ctx, query, userID, streak.DateOnly(startedAt), minutes)
	return err
}

// ListSessions returns a user's sessions in [from, to], newest first,
// optionally filtered by plan.
func (s *SessionService) ListSessions(ctx context.Context, clerkID string, from, to time.Time, planID *uuid.UUID) ([]*session.Session, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, plan_id, type, started_at, ended_at, duration_minutes, completed, interrupted, created_at
		FROM sessions
		WHERE user_id = $1 AND started_at >= $2 AND started_at <= $3
			AND ($4::uuid IS NULL OR plan_id = $4)
		ORDER BY started_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID, from, to, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows pgx.Rows) ([]*session.Session, error) {
	var sessions []*session.Session
	for rows.Next() {
		var sess session.Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.PlanID, &sess.Type,
			&sess.StartedAt, &sess.EndedAt, &sess.DurationMinutes,
			&sess.Completed, &sess.Interrupted, &sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// GetDailyStats reads the last N days from the DailyStat cache.
func (s *SessionService) GetDailyStats(ctx context.Context, clerkID string, days int) ([]*dailystat.DailyStat, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, date, total_minutes, sessions_completed, tasks_completed, focus_score, created_at, updated_at
		FROM daily_stats
		WHERE user_id = $1 AND date >= CURRENT_DATE - $2::int
		ORDER BY date ASC
	`

	rows, err := s.db.Query(ctx, query, userID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	defer rows.Close()

	var stats []*dailystat.DailyStat
	for rows.Next() {
		var st dailystat.DailyStat
		if err := rows.Scan(&st.ID, &st.UserID, &st.Date, &st.TotalMinutes,
			&st.SessionsCompleted, &st.TasksCompleted, &st.FocusScore,
			&st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		stats = append(stats, &st)
	}
	return stats, rows.Err()
}

// RebuildDailyStat recomputes one cache row from raw sessions. This is
// the correctness fallback when incremental upserts were dropped.
func (s *SessionService) RebuildDailyStat(ctx context.Context, clerkID string, date time.Time) error {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	day := streak.DateOnly(date)

	var minutes, count int
	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(duration_minutes), 0), COUNT(*)
		FROM sessions
		WHERE user_id = $1 AND type = 'FOCUS' AND completed = true
			AND started_at >= $2 AND started_at < $2 + INTERVAL '1 day'
	`, userID, day).Scan(&minutes, &count)
	if err != nil {
		return fmt.Errorf("failed to recompute daily stat: %w", err)
	}

	query := `
		INSERT INTO daily_stats (user_id, date, total_minutes, sessions_completed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, date)
		DO UPDATE SET
			total_minutes = $3,
			sessions_completed = $4,
			updated_at = NOW()
	`
	_, err = s.db.Exec(ctx, query, userID, day, minutes, count)
	if err != nil {
		return fmt.Errorf("failed to rebuild daily stat: %w", err)
	}
	return nil
}
