package timer

import (
	"testing"
	"time"
)

var testCfg = Config{
	FocusLength:       25 * time.Minute,
	ShortBreakLength:  5 * time.Minute,
	LongBreakLength:   15 * time.Minute,
	LongBreakInterval: 4,
}

func TestStartRecordsInterval(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	s := NewState(testCfg)
	if s.Mode != ModeFocus || s.Running {
		t.Fatalf("new state should be an idle focus timer, got %+v", s)
	}

	s = Start(s, now)
	if !s.Running {
		t.Error("expected running after start")
	}
	if !s.StartedAt.Equal(now) {
		t.Errorf("expected StartedAt %v, got %v", now, s.StartedAt)
	}

	// Starting an already running timer must not reset the interval start.
	later := now.Add(3 * time.Minute)
	s = Start(s, later)
	if !s.StartedAt.Equal(now) {
		t.Errorf("start on a running timer moved StartedAt to %v", s.StartedAt)
	}
}

func TestPauseDoesNotFinalize(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	s := Start(NewState(testCfg), now)
	s, fin := Pause(s, testCfg, now.Add(10*time.Minute))
	if fin != nil {
		t.Fatalf("pause must not finalize the session, got %+v", fin)
	}
	if s.Running {
		t.Error("expected stopped after pause")
	}
	if s.Remaining != 15*time.Minute {
		t.Errorf("expected 15m remaining, got %v", s.Remaining)
	}
	if s.StartedAt.IsZero() {
		t.Error("pause must keep the interval start so resume continues the same session")
	}
}

func TestNaturalExpiryCompletesAndAdvances(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	s := Start(NewState(testCfg), now)
	s, fin := Advance(s, testCfg, now.Add(25*time.Minute))
	if fin == nil {
		t.Fatal("expected a finalization at expiry")
	}
	if !fin.Completed || fin.Interrupted {
		t.Errorf("expiry should finalize completed, got %+v", fin)
	}
	if fin.Mode != ModeFocus {
		t.Errorf("expected focus finalization, got %s", fin.Mode)
	}
	if got := fin.EndedAt.Sub(fin.StartedAt); got != 25*time.Minute {
		t.Errorf("expected 25m wall-clock duration, got %v", got)
	}
	if s.Mode != ModeShortBreak {
		t.Errorf("first focus completion should advance to short break, got %s", s.Mode)
	}
	if s.Running {
		t.Error("next interval must not auto-start at the state machine level")
	}
	if s.Remaining != 5*time.Minute {
		t.Errorf("expected short break countdown, got %v", s.Remaining)
	}
}

func TestLongBreakCadence(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := NewState(testCfg)

	for i := 1; i <= 4; i++ {
		s = Start(s, now)
		var fin *Finalization
		s, fin = Advance(s, testCfg, now.Add(25*time.Minute))
		if fin == nil || !fin.Completed {
			t.Fatalf("focus interval %d did not complete", i)
		}

		want := ModeShortBreak
		if i == 4 {
			want = ModeLongBreak
		}
		if s.Mode != want {
			t.Fatalf("after focus interval %d expected %s, got %s", i, want, s.Mode)
		}

		// Run the break to completion; every break returns to focus.
		now = now.Add(30 * time.Minute)
		s = Start(s, now)
		s, _ = Advance(s, testCfg, now.Add(lengthFor(testCfg, s.Mode)))
		if s.Mode != ModeFocus {
			t.Fatalf("break after focus interval %d did not return to focus, got %s", i, s.Mode)
		}
		now = now.Add(time.Hour)
	}
}

func TestSkipMidCountdown(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	s := Start(NewState(testCfg), now)
	s, _ = Advance(s, testCfg, now.Add(10*time.Minute))
	s, fin := Skip(s, testCfg, now.Add(10*time.Minute))

	if fin == nil {
		t.Fatal("expected a finalization from skip")
	}
	if !fin.Interrupted || fin.Completed {
		t.Errorf("skip should finalize interrupted, got %+v", fin)
	}
	if got := fin.EndedAt.Sub(fin.StartedAt); got != 10*time.Minute {
		t.Errorf("expected ~10m elapsed, got %v", got)
	}
	if s.Mode != ModeShortBreak {
		t.Errorf("skip on focus should advance to a break, got %s", s.Mode)
	}
}

func TestIdleSkipEarnsNoCadenceCredit(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := NewState(testCfg)

	// Skipping intervals that never started cycles through modes but
	// must not accumulate focus credit toward a long break.
	for i := 0; i < 4; i++ {
		var fin *Finalization
		s, fin = Skip(s, testCfg, now)
		if fin != nil {
			t.Fatalf("skip of an unstarted interval produced %+v", fin)
		}
		if s.Mode != ModeShortBreak {
			t.Fatalf("idle focus skip %d should give a short break, got %s", i+1, s.Mode)
		}
		s, _ = Skip(s, testCfg, now)
		if s.Mode != ModeFocus {
			t.Fatalf("idle break skip %d should return to focus, got %s", i+1, s.Mode)
		}
	}
	if s.FocusCount != 0 {
		t.Errorf("idle skips accumulated focus count %d", s.FocusCount)
	}

	// A started interval still counts when skipped.
	s = Start(s, now)
	s, fin := Skip(s, testCfg, now.Add(time.Minute))
	if fin == nil || !fin.Interrupted {
		t.Fatalf("started skip should finalize interrupted, got %+v", fin)
	}
	if s.FocusCount != 1 {
		t.Errorf("started skip should count toward the cadence, got %d", s.FocusCount)
	}
}

func TestResetStaysInMode(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	s := Start(NewState(testCfg), now)
	s, _ = Advance(s, testCfg, now.Add(7*time.Minute))
	s, fin := Reset(s, testCfg, now.Add(7*time.Minute))

	if fin == nil || !fin.Interrupted {
		t.Fatalf("reset of a started interval should finalize interrupted, got %+v", fin)
	}
	if s.Mode != ModeFocus {
		t.Errorf("reset must stay in the current mode, got %s", s.Mode)
	}
	if s.Remaining != testCfg.FocusLength {
		t.Errorf("reset should restore the full countdown, got %v", s.Remaining)
	}

	// Resetting an interval that never started emits nothing.
	_, fin = Reset(NewState(testCfg), testCfg, now)
	if fin != nil {
		t.Errorf("reset of an unstarted interval produced %+v", fin)
	}
}

func TestAdvanceClampsClockAnomalies(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	s := Start(NewState(testCfg), now)
	s, fin := Advance(s, testCfg, now.Add(-time.Hour))
	if fin != nil {
		t.Fatalf("backwards clock jump finalized a session: %+v", fin)
	}
	if s.Remaining != testCfg.FocusLength {
		t.Errorf("negative elapsed must clamp to zero, remaining %v", s.Remaining)
	}
}

func TestFocusSecondsAccumulate(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	s := Start(NewState(testCfg), now)
	s, _ = Advance(s, testCfg, now.Add(10*time.Minute))
	s, _ = Pause(s, testCfg, now.Add(10*time.Minute))
	if s.FocusSeconds != 600 {
		t.Errorf("expected 600 focus seconds, got %d", s.FocusSeconds)
	}

	// Break time never counts toward focus seconds.
	s, _ = Skip(s, testCfg, now.Add(10*time.Minute))
	s = Start(s, now.Add(11*time.Minute))
	s, _ = Advance(s, testCfg, now.Add(16*time.Minute))
	if s.FocusSeconds != 600 {
		t.Errorf("break elapsed leaked into focus seconds: %d", s.FocusSeconds)
	}
}
