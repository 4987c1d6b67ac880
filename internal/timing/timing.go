// Package timing measures the phases of one conversation run.
package timing

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// Phase names used by the conversation driver
const (
	PhaseParse   = "parse"
	PhaseMark    = "mark"
	PhaseCall    = "call"
	PhaseResolve = "resolve"

	// PhaseTotal is the whole run, from timer creation
	PhaseTotal = "total"
)

// Timer tracks elapsed time and named phases
type Timer struct {
	now         Clock
	start       time.Time
	phaseStarts map[string]time.Time
	phases      map[string]int64
	mu          sync.Mutex
}

// New creates a Timer on the wall clock
func New() *Timer {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Timer that reads time from now
func NewWithClock(now Clock) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{
		now:         now,
		start:       now(),
		phaseStarts: make(map[string]time.Time),
		phases:      make(map[string]int64),
	}
}

// ElapsedMs returns the number of milliseconds since the timer was created
func (t *Timer) ElapsedMs() int64 {
	return t.now().Sub(t.start).Milliseconds()
}

// StartPhase begins timing a named phase
func (t *Timer) StartPhase(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phaseStarts[name] = t.now()
}

// EndPhase ends a named phase and returns its duration in milliseconds.
// Ending a phase that was never started returns 0.
func (t *Timer) EndPhase(name string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, ok := t.phaseStarts[name]
	if !ok {
		return 0
	}

	duration := t.now().Sub(start).Milliseconds()
	t.phases[name] = duration
	delete(t.phaseStarts, name)
	return duration
}

// Measure runs fn as the named phase
func (t *Timer) Measure(name string, fn func() error) error {
	t.StartPhase(name)
	defer t.EndPhase(name)
	return fn()
}

// Phases returns a copy of all recorded phase durations
func (t *Timer) Phases() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make(map[string]int64, len(t.phases))
	for k, v := range t.phases {
		result[k] = v
	}
	return result
}
