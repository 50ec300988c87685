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
)

// streakMilestones are the day counts worth a push notification.
var streakMilestones = map[int]string{
	7:   "One week of studying every day!",
	30:  "30 days straight. You're unstoppable!",
	100: "100 day study streak. Incredible!",
	365: "A full year of daily studying!",
}

// PushProvider is the outbound notification contract (FCM in production).
type PushProvider interface {
	SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

type StreakService struct {
	db   *pgxpool.Pool
	push PushProvider
}

func NewStreakService(db *pgxpool.Pool) *StreakService {
	return &StreakService{db: db}
}

// SetPushProvider injects the push provider once it is available.
func (s *StreakService) SetPushProvider(p PushProvider) {
	s.push = p
}

// GetStreak returns the user's streak singleton, zero-valued if the user
// has never studied.
func (s *StreakService) GetStreak(ctx context.Context, clerkID string) (*streak.StudyStreak, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return s.getByUserID(ctx, userID)
}

func (s *StreakService) getByUserID(ctx context.Context, userID uuid.UUID) (*streak.StudyStreak, error) {
	query := `
		SELECT id, user_id, current_streak, longest_streak, last_study_date, total_study_days, created_at, updated_at
		FROM study_streaks
		WHERE user_id = $1
	`

	var st streak.StudyStreak
	err := s.db.QueryRow(ctx, query, userID).Scan(&st.ID, &st.UserID,
		&st.CurrentStreak, &st.LongestStreak, &st.LastStudyDate,
		&st.TotalStudyDays, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &streak.StudyStreak{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return &st, nil
}

// UpdateOnActivity feeds one qualifying study day into the streak. The
// per-document upsert is the only write; the store's row atomicity is
// what the single-writer model relies on.
func (s *StreakService) UpdateOnActivity(ctx context.Context, userID uuid.UUID, activityDate time.Time) (*streak.StudyStreak, error) {
	current, err := s.getByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, outcome := streak.Advance(*current, activityDate)
	switch outcome {
	case streak.OutcomeUnchanged:
		return current, nil
	case streak.OutcomeBackfill:
		log.Printf("StreakService: out-of-order activity date %s for user %s (last study %s), ignoring",
			activityDate.Format("2006-01-02"), userID, current.LastStudyDate.Format("2006-01-02"))
		return current, nil
	}

	query := `
		INSERT INTO study_streaks (user_id, current_streak, longest_streak, last_study_date, total_study_days)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET
			current_streak = $2,
			longest_streak = $3,
			last_study_date = $4,
			total_study_days = $5,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err = s.db.QueryRow(ctx, query, userID, next.CurrentStreak, next.LongestStreak,
		next.LastStudyDate, next.TotalStudyDays).Scan(&next.ID, &next.CreatedAt, &next.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert streak: %w", err)
	}

	if _, ok := streakMilestones[next.CurrentStreak]; ok {
		go s.sendMilestonePush(userID, next.CurrentStreak)
	}

	return &next, nil
}

func (s *StreakService) sendMilestonePush(userID uuid.UUID, days int) {
	if s.push == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, `SELECT token FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		log.Printf("StreakService: failed to load device tokens for %s: %v", userID, err)
		return
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			continue
		}
		tokens = append(tokens, token)
	}

	title := fmt.Sprintf("%d day streak!", days)
	body := streakMilestones[days]
	data := map[string]string{"type": "streak_milestone", "days": fmt.Sprintf("%d", days)}

	if err := s.push.SendPush(ctx, tokens, title, body, data); err != nil {
		log.Printf("StreakService: milestone push failed for %s: %v", userID, err)
	}
}
