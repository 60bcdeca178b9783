package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Current(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockNowFunc(t *testing.T) {
	clock := NewClock(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	if got := nowFn(); !got.Equal(clock.Current()) {
		t.Fatalf("expected %v from NowFunc, got %v", clock.Current(), got)
	}

	clock.Advance(time.Minute)
	if got := nowFn(); !got.Equal(clock.Current()) {
		t.Fatalf("expected updated time %v, got %v", clock.Current(), got)
	}
}

func TestClockTodayFollowsLocation(t *testing.T) {
	clock := NewClock(time.Date(2026, time.February, 10, 23, 30, 0, 0, time.UTC))
	tokyo := time.FixedZone("JST", 9*60*60)

	if got := clock.Today(nil).String(); got != "2026-02-10" {
		t.Fatalf("expected UTC date 2026-02-10, got %s", got)
	}
	if got := clock.Today(tokyo).String(); got != "2026-02-11" {
		t.Fatalf("expected Tokyo date 2026-02-11, got %s", got)
	}

	clock.AdvanceDays(2)
	if got := clock.Today(nil).String(); got != "2026-02-12" {
		t.Fatalf("expected 2026-02-12 after advancing, got %s", got)
	}
}
