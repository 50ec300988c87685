package timer

import "time"

type Mode string

const (
	ModeFocus      Mode = "FOCUS"
	ModeShortBreak Mode = "SHORT_BREAK"
	ModeLongBreak  Mode = "LONG_BREAK"
)

// Config carries the interval lengths the state machine runs with.
// Values come from the user's TimerSettings.
type Config struct {
	FocusLength       time.Duration
	ShortBreakLength  time.Duration
	LongBreakLength   time.Duration
	LongBreakInterval int
}

// State is one user's timer. All transition functions are pure: they
// take the current state plus a wall-clock instant and return the next
// state, so the machine can be advanced lazily on request or by a
// background sweep without drift.
type State struct {
	Mode      Mode          `json:"mode"`
	Remaining time.Duration `json:"remaining"`
	Running   bool          `json:"running"`

	// StartedAt is the wall-clock start of the in-progress interval.
	// Zero when the interval has not started yet. Durations are always
	// computed from StartedAt to "now", never from the countdown delta,
	// so backgrounding and clock drift don't corrupt recorded sessions.
	StartedAt time.Time `json:"started_at,omitempty"`

	// LastTick is the instant the countdown was last advanced.
	LastTick time.Time `json:"-"`

	// FocusCount counts focus intervals finished in the current cycle,
	// driving the long-break cadence.
	FocusCount int `json:"focus_count"`

	// FocusSeconds accumulates elapsed focus time for display,
	// independent of the countdown.
	FocusSeconds int `json:"focus_seconds"`
}

// Finalization is the side-effect a transition can emit: one finished
// interval that must be handed to the session recorder exactly once.
type Finalization struct {
	Mode        Mode
	StartedAt   time.Time
	EndedAt     time.Time
	Completed   bool
	Interrupted bool
}

func lengthFor(cfg Config, mode Mode) time.Duration {
	switch mode {
	case ModeShortBreak:
		return cfg.ShortBreakLength
	case ModeLongBreak:
		return cfg.LongBreakLength
	default:
		return cfg.FocusLength
	}
}

// NewState returns an idle focus timer with a full countdown.
func NewState(cfg Config) State {
	return State{
		Mode:      ModeFocus,
		Remaining: cfg.FocusLength,
	}
}

// Start begins (or resumes) the countdown. The interval start timestamp
// is recorded only once per interval.
func Start(s State, now time.Time) State {
	if s.Running {
		return s
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = now
	}
	s.Running = true
	s.LastTick = now
	return s
}

// Pause stops the countdown without finalizing the interval.
func Pause(s State, cfg Config, now time.Time) (State, *Finalization) {
	s, fin := Advance(s, cfg, now)
	s.Running = false
	return s, fin
}

// Reset abandons the in-progress interval, if any, and restores the
// current mode's full countdown. An interval that never started
// produces no finalization.
func Reset(s State, cfg Config, now time.Time) (State, *Finalization) {
	var fin *Finalization
	if !s.StartedAt.IsZero() {
		fin = &Finalization{
			Mode:        s.Mode,
			StartedAt:   s.StartedAt,
			EndedAt:     now,
			Interrupted: true,
		}
	}
	s.Running = false
	s.StartedAt = time.Time{}
	s.Remaining = lengthFor(cfg, s.Mode)
	return s, fin
}

// Skip abandons the current interval and moves to the next mode in the
// cycle. A skipped focus interval still counts toward the long-break
// cadence, but only if it actually started; skipping an idle timer
// earns no credit.
func Skip(s State, cfg Config, now time.Time) (State, *Finalization) {
	started := !s.StartedAt.IsZero()

	var fin *Finalization
	if started {
		fin = &Finalization{
			Mode:        s.Mode,
			StartedAt:   s.StartedAt,
			EndedAt:     now,
			Interrupted: true,
		}
	}
	return advanceMode(s, cfg, started), fin
}

// Advance applies wall-clock time elapsed since the last tick. When the
// countdown reaches zero the interval is finalized as completed and the
// machine moves to the next mode, stopped (auto-start is the caller's
// policy). Negative elapsed time from clock anomalies is clamped to
// zero.
func Advance(s State, cfg Config, now time.Time) (State, *Finalization) {
	if !s.Running {
		return s, nil
	}

	elapsed := now.Sub(s.LastTick)
	if elapsed < 0 {
		elapsed = 0
	}
	s.LastTick = now

	if s.Mode == ModeFocus {
		counted := elapsed
		if counted > s.Remaining {
			counted = s.Remaining
		}
		s.FocusSeconds += int(counted / time.Second)
	}

	if elapsed < s.Remaining {
		s.Remaining -= elapsed
		return s, nil
	}

	// Natural expiry.
	fin := &Finalization{
		Mode:      s.Mode,
		StartedAt: s.StartedAt,
		EndedAt:   now,
		Completed: true,
	}
	return advanceMode(s, cfg, true), fin
}

// advanceMode applies the cycle rule: after a focus interval the
// long-break cadence decides the break length, after any break the
// machine returns to focus. Only counted (started) focus intervals
// move the cadence; an uncounted one always yields a short break.
func advanceMode(s State, cfg Config, counted bool) State {
	next := ModeFocus
	if s.Mode == ModeFocus {
		next = ModeShortBreak
		if counted {
			s.FocusCount++
			interval := cfg.LongBreakInterval
			if interval <= 0 {
				interval = 4
			}
			if s.FocusCount%interval == 0 {
				next = ModeLongBreak
			}
		}
	}

	s.Mode = next
	s.Running = false
	s.StartedAt = time.Time{}
	s.Remaining = lengthFor(cfg, next)
	return s
}
