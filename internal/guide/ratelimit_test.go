package guide

import (
	"testing"
	"time"
)

func TestLimiterPerMinute(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(5, 0)

	for i := 0; i < 5; i++ {
		if !l.Allow(base) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow(base) {
		t.Fatal("sixth request in the same minute should be denied")
	}
	if !l.Allow(base.Add(61 * time.Second)) {
		t.Fatal("request after the window rolls should be allowed")
	}
}

func TestLimiterDailyCap(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimiter(0, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow(base.Add(time.Duration(i) * time.Hour)) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow(base.Add(4 * time.Hour)) {
		t.Fatal("request over the daily cap should be denied")
	}
	if !l.Allow(base.Add(25 * time.Hour)) {
		t.Fatal("request the next day should be allowed")
	}
}

func TestLimiterRemaining(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(10, 200)
	l.Allow(base)
	l.Allow(base)

	minute, day := l.Remaining(base)
	if minute != 8 {
		t.Errorf("minute remaining = %d, want 8", minute)
	}
	if day != 198 {
		t.Errorf("day remaining = %d, want 198", day)
	}

	unlimited := NewLimiter(0, 0)
	minute, day = unlimited.Remaining(base)
	if minute != -1 || day != -1 {
		t.Errorf("disabled limiter remaining = (%d, %d), want (-1, -1)", minute, day)
	}
}
