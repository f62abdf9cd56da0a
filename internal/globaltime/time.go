// Package globaltime is the process clock. Cache expiry and aggregation
// timestamps read it so tests can pin or step time.
package globaltime

import (
	"sync"
	"time"
)

var (
	mu     sync.RWMutex
	frozen *time.Time
)

func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	if frozen != nil {
		return *frozen
	}
	return time.Now()
}

func UTC() time.Time {
	return Now().UTC()
}

// Since reports the elapsed time between t and Now.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

// SetMockTime freezes the clock at t until ResetTime.
func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	frozen = &t
}

// Advance moves a frozen clock forward by d. It is a no-op on the real clock.
func Advance(d time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if frozen == nil {
		return
	}
	next := frozen.Add(d)
	frozen = &next
}

func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	frozen = nil
}
