package services

import (
	"context"
	"log"
	"sync"
	"time"

	"studyPulseAPI/internal/timer"
	"studyPulseAPI/internal/types/session"
	"studyPulseAPI/middleware"
)

// TimerSnapshot is what clients poll: the state machine plus the pending
// write count so a client can tell unsynced intervals exist.
type TimerSnapshot struct {
	timer.State
	PlanID       *string `json:"plan_id,omitempty"`
	PendingCount int     `json:"pending_writes"`
}

type userTimer struct {
	state  timer.State
	cfg    timer.Config
	planID *string

	// auto-start policy from TimerSettings.
	autoBreaks    bool
	autoPomodoros bool

	// pending holds finalizations whose store write failed. They are
	// retried on the next operation or sweep; a failed write never
	// discards the interval.
	pending []timer.Finalization
}

// TimerService keeps exactly one in-memory timer per user. All state
// transitions go through the pure state machine; this layer owns the
// registry, settings lookup, persistence of finalized intervals, and the
// background sweep that fires natural expiry.
type TimerService struct {
	mu     sync.RWMutex
	timers map[string]*userTimer

	sessionService  *SessionService
	settingsService *SettingsService

	done chan struct{}
}

func NewTimerService(sessionService *SessionService, settingsService *SettingsService) *TimerService {
	return &TimerService{
		timers:          make(map[string]*userTimer),
		sessionService:  sessionService,
		settingsService: settingsService,
		done:            make(chan struct{}),
	}
}

func (s *TimerService) loadTimer(ctx context.Context, clerkID string) (*userTimer, error) {
	s.mu.RLock()
	t, ok := s.timers[clerkID]
	s.mu.RUnlock()
	if ok {
		return t, nil
	}

	cfg, autoBreaks, autoPomodoros, err := s.settingsService.TimerConfig(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.timers[clerkID]; ok {
		return existing, nil
	}
	t = &userTimer{
		state:         timer.NewState(cfg),
		cfg:           cfg,
		autoBreaks:    autoBreaks,
		autoPomodoros: autoPomodoros,
	}
	s.timers[clerkID] = t
	return t, nil
}

// Start begins or resumes the user's timer, optionally tying the
// interval to a plan.
func (s *TimerService) Start(ctx context.Context, clerkID string, planID *string) (*TimerSnapshot, error) {
	t, err := s.loadTimer(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	now := time.Now()
	s.applyAdvance(ctx, clerkID, t, now)
	if planID != nil {
		t.planID = planID
	}
	t.state = timer.Start(t.state, now)
	snap := snapshot(t)
	s.mu.Unlock()
	return snap, nil
}

// Pause stops the countdown without finalizing the interval.
func (s *TimerService) Pause(ctx context.Context, clerkID string) (*TimerSnapshot, error) {
	return s.transition(ctx, clerkID, func(t *userTimer, now time.Time) (timer.State, *timer.Finalization) {
		return timer.Pause(t.state, t.cfg, now)
	})
}

// Reset abandons the interval and restores the mode's full countdown.
func (s *TimerService) Reset(ctx context.Context, clerkID string) (*TimerSnapshot, error) {
	return s.transition(ctx, clerkID, func(t *userTimer, now time.Time) (timer.State, *timer.Finalization) {
		return timer.Reset(t.state, t.cfg, now)
	})
}

// Skip abandons the interval and advances the cycle.
func (s *TimerService) Skip(ctx context.Context, clerkID string) (*TimerSnapshot, error) {
	return s.transition(ctx, clerkID, func(t *userTimer, now time.Time) (timer.State, *timer.Finalization) {
		return timer.Skip(t.state, t.cfg, now)
	})
}

// State advances the timer to now and returns a snapshot.
func (s *TimerService) State(ctx context.Context, clerkID string) (*TimerSnapshot, error) {
	return s.transition(ctx, clerkID, func(t *userTimer, now time.Time) (timer.State, *timer.Finalization) {
		return t.state, nil
	})
}

func (s *TimerService) transition(ctx context.Context, clerkID string, fn func(*userTimer, time.Time) (timer.State, *timer.Finalization)) (*TimerSnapshot, error) {
	t, err := s.loadTimer(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	now := time.Now()
	s.applyAdvance(ctx, clerkID, t, now)

	next, fin := fn(t, now)
	t.state = next
	if fin != nil {
		s.persist(ctx, clerkID, t, *fin)
	}
	s.retryPending(ctx, clerkID, t)

	snap := snapshot(t)
	s.mu.Unlock()
	return snap, nil
}

// applyAdvance moves wall-clock time forward on the state machine,
// handling natural expiry and the auto-start policy. Caller holds mu.
func (s *TimerService) applyAdvance(ctx context.Context, clerkID string, t *userTimer, now time.Time) {
	next, fin := timer.Advance(t.state, t.cfg, now)
	t.state = next
	if fin != nil {
		s.persist(ctx, clerkID, t, *fin)
		intoBreak := t.state.Mode != timer.ModeFocus
		if (intoBreak && t.autoBreaks) || (!intoBreak && t.autoPomodoros) {
			t.state = timer.Start(t.state, now)
		}
	}
}

// persist hands one finalization to the session recorder. On failure the
// finalization joins the pending queue; the state transition stands
// either way (at-least-once intent).
func (s *TimerService) persist(ctx context.Context, clerkID string, t *userTimer, fin timer.Finalization) {
	req := &session.RecordSessionRequest{
		PlanID:      t.planID,
		Type:        session.Type(fin.Mode),
		StartedAt:   fin.StartedAt,
		EndedAt:     fin.EndedAt,
		Completed:   fin.Completed,
		Interrupted: fin.Interrupted,
	}

	if _, err := s.sessionService.Record(ctx, clerkID, req); err != nil {
		log.Printf("TimerService: session write failed for %s, queued for retry: %v", clerkID, err)
		t.pending = append(t.pending, fin)
		return
	}

	outcome := "interrupted"
	if fin.Completed {
		outcome = "completed"
	}
	middleware.RecordTimerFinalization(outcome)
}

// retryPending replays failed writes. Caller holds mu.
func (s *TimerService) retryPending(ctx context.Context, clerkID string, t *userTimer) {
	if len(t.pending) == 0 {
		return
	}

	remaining := t.pending[:0]
	for _, fin := range t.pending {
		req := &session.RecordSessionRequest{
			PlanID:      t.planID,
			Type:        session.Type(fin.Mode),
			StartedAt:   fin.StartedAt,
			EndedAt:     fin.EndedAt,
			Completed:   fin.Completed,
			Interrupted: fin.Interrupted,
		}
		if _, err := s.sessionService.Record(ctx, clerkID, req); err != nil {
			remaining = append(remaining, fin)
		}
	}
	t.pending = remaining
}

// StartSweeper runs the background loop that advances every running
// timer once per second, so natural expiry finalizes sessions even when
// no client is polling.
func (s *TimerService) StartSweeper() {
	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.done:
				return
			}
		}
	}()
}

// StopSweeper terminates the background loop.
func (s *TimerService) StopSweeper() {
	close(s.done)
}

func (s *TimerService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for clerkID, t := range s.timers {
		if t.state.Running {
			s.applyAdvance(ctx, clerkID, t, now)
		}
		s.retryPending(ctx, clerkID, t)
	}
}

func snapshot(t *userTimer) *TimerSnapshot {
	return &TimerSnapshot{
		State:        t.state,
		PlanID:       t.planID,
		PendingCount: len(t.pending),
	}
}
