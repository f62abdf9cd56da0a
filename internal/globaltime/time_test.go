package globaltime

import (
	"testing"
	"time"
)

// Not parallel: the clock is package state.
func TestMockClock(t *testing.T) {
	start := time.Date(2020, 10, 1, 8, 0, 0, 0, time.UTC)
	SetMockTime(start)
	defer ResetTime()

	if got := Now(); !got.Equal(start) {
		t.Fatalf("unexpected frozen time: %s", got)
	}

	Advance(90 * time.Second)
	if got := Since(start); got != 90*time.Second {
		t.Fatalf("unexpected elapsed time: %s", got)
	}

	ResetTime()
	Advance(time.Hour)
	if Now().Sub(start) < 0 {
		t.Fatalf("real clock should be after the fixed test date")
	}
}
