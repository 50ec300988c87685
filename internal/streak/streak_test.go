package streak

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	// March 2026: the 2nd is a Monday.
	return time.Date(2026, 3, d, 14, 30, 0, 0, time.UTC)
}

func TestFirstActivityStartsAtOne(t *testing.T) {
	s, out := Advance(StudyStreak{}, day(2))
	if out != OutcomeStarted {
		t.Fatalf("expected OutcomeStarted, got %v", out)
	}
	if s.CurrentStreak != 1 || s.LongestStreak != 1 || s.TotalStudyDays != 1 {
		t.Errorf("unexpected state after first activity: %+v", s)
	}
	if s.LastStudyDate == nil || !s.LastStudyDate.Equal(DateOnly(day(2))) {
		t.Errorf("last study date not normalized to calendar day: %v", s.LastStudyDate)
	}
}

func TestSameDayIsIdempotent(t *testing.T) {
	s, _ := Advance(StudyStreak{}, day(2))
	before := s

	s, out := Advance(s, day(2).Add(5*time.Hour))
	if out != OutcomeUnchanged {
		t.Fatalf("expected OutcomeUnchanged, got %v", out)
	}
	if s != before {
		t.Errorf("same-day repeat mutated state: %+v -> %+v", before, s)
	}
}

func TestConsecutiveDaysExtend(t *testing.T) {
	var s StudyStreak
	for d := 2; d <= 6; d++ {
		s, _ = Advance(s, day(d))
	}
	if s.CurrentStreak != 5 {
		t.Errorf("expected streak 5, got %d", s.CurrentStreak)
	}
	if s.LongestStreak != 5 {
		t.Errorf("expected longest 5, got %d", s.LongestStreak)
	}
	if s.TotalStudyDays != 5 {
		t.Errorf("expected 5 study days, got %d", s.TotalStudyDays)
	}
}

func TestGapResetsToOneNotZero(t *testing.T) {
	// Mon, Tue, Wed, skip Thu, then Fri.
	var s StudyStreak
	for d := 2; d <= 4; d++ {
		s, _ = Advance(s, day(d))
	}
	s, out := Advance(s, day(6))
	if out != OutcomeReset {
		t.Fatalf("expected OutcomeReset, got %v", out)
	}
	if s.CurrentStreak != 1 {
		t.Errorf("streak after a gap must be 1, got %d", s.CurrentStreak)
	}
	if s.LongestStreak != 3 {
		t.Errorf("longest streak should survive the reset, got %d", s.LongestStreak)
	}
	if s.TotalStudyDays != 4 {
		t.Errorf("expected 4 study days, got %d", s.TotalStudyDays)
	}
}

func TestBackfillIsNoOp(t *testing.T) {
	var s StudyStreak
	s, _ = Advance(s, day(2))
	s, _ = Advance(s, day(3))
	before := s

	s, out := Advance(s, day(1))
	if out != OutcomeBackfill {
		t.Fatalf("expected OutcomeBackfill, got %v", out)
	}
	if s.CurrentStreak != before.CurrentStreak || s.TotalStudyDays != before.TotalStudyDays {
		t.Errorf("backfill mutated streak state: %+v", s)
	}
	if !s.LastStudyDate.Equal(*before.LastStudyDate) {
		t.Errorf("backfill moved last study date to %v", s.LastStudyDate)
	}
}

func TestTrailingRunProperty(t *testing.T) {
	// For dates fed in increasing order the streak equals the maximal
	// trailing run of consecutive days.
	days := []int{2, 3, 5, 6, 7, 10, 11, 12, 13}
	var s StudyStreak
	for _, d := range days {
		s, _ = Advance(s, day(d))
	}
	if s.CurrentStreak != 4 {
		t.Errorf("expected trailing run of 4 (10-13), got %d", s.CurrentStreak)
	}
	if s.LongestStreak != 4 {
		t.Errorf("expected longest 4, got %d", s.LongestStreak)
	}
}

func TestConsecutiveDaysAcrossZones(t *testing.T) {
	// Clients post RFC3339 timestamps in their own offset while stored
	// dates round-trip in UTC. A consecutive local day east of UTC spans
	// less than 24h midnight to midnight and must still extend.
	utcDay := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	almaty := time.FixedZone("UTC+5", 5*60*60)
	nextLocalDay := time.Date(2026, 3, 2, 1, 0, 0, 0, almaty)

	var s StudyStreak
	s, _ = Advance(s, utcDay)
	s, out := Advance(s, nextLocalDay)
	if out != OutcomeExtended {
		t.Fatalf("consecutive day in a non-UTC offset should extend, got %v", out)
	}
	if s.CurrentStreak != 2 {
		t.Errorf("expected streak 2, got %d", s.CurrentStreak)
	}

	// A same-day repeat in another offset stays idempotent.
	sameDayWest := time.Date(2026, 3, 1, 20, 0, 0, 0, time.FixedZone("UTC-3", -3*60*60))
	s2, _ := Advance(StudyStreak{}, utcDay)
	s2, out = Advance(s2, sameDayWest)
	if out != OutcomeUnchanged {
		t.Fatalf("same calendar day in another offset should be a no-op, got %v", out)
	}
	if s2.CurrentStreak != 1 {
		t.Errorf("expected streak 1, got %d", s2.CurrentStreak)
	}
}

func TestDateOnlyAcrossMidnight(t *testing.T) {
	lateNight := time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)
	earlyMorning := time.Date(2026, 3, 3, 0, 5, 0, 0, time.UTC)

	var s StudyStreak
	s, _ = Advance(s, lateNight)
	s, out := Advance(s, earlyMorning)
	if out != OutcomeExtended {
		t.Fatalf("minutes across midnight should count as consecutive days, got %v", out)
	}
	if s.CurrentStreak != 2 {
		t.Errorf("expected streak 2, got %d", s.CurrentStreak)
	}
}
