// Package scheduler runs the server's phase-aligned background tick
// loop: monster respawn/roam sweeps, combat timeout sweeps, session
// idle cleanup, and autosave all fire from ticks at wall-clock seconds
// 0, 15, 30, and 45 rather than from independent interval timers.
// Grounded on the teacher main.go's background-ticker-plus-ctx.Done
// shutdown shape (its world.Update ticker and its hourly rate-limiter
// cleanup goroutine), generalized from a single fixed-rate ticker into
// a registry of named, independently enable/disable-able events.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/holdfast-mud/holdfast/internal/applog"
)

// Phases are the wall-clock seconds-within-minute a tick may land on.
var Phases = []int{0, 15, 30, 45}

const tickGranularity = time.Second

// EventFunc is one scheduled unit of work. It must return quickly;
// anything that might block should be spawned as its own goroutine by
// the EventFunc itself.
type EventFunc func(ctx context.Context) error

// MetricsRecorder is the narrow slice of internal/telemetry a
// Scheduler needs, declared locally so this package does not import
// telemetry's full surface.
type MetricsRecorder interface {
	ObserveSchedulerRun(event string, err error)
}

// EventInfo is a read-only snapshot of one registered event's state,
// returned by List/Info for the admin-facing scheduler command.
type EventInfo struct {
	Name       string
	Intervals  []int
	Enabled    bool
	RunCount   int64
	ErrorCount int64
	LastRun    time.Time
	LastError  string
}

type event struct {
	mu         sync.Mutex
	name       string
	intervals  map[int]bool
	fn         EventFunc
	enabled    bool
	runCount   int64
	errorCount int64
	lastRun    time.Time
	lastError  string
}

func (e *event) snapshot() EventInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	intervals := make([]int, 0, len(e.intervals))
	for s := range e.intervals {
		intervals = append(intervals, s)
	}
	return EventInfo{
		Name: e.name, Intervals: intervals, Enabled: e.enabled,
		RunCount: e.runCount, ErrorCount: e.errorCount,
		LastRun: e.lastRun, LastError: e.lastError,
	}
}

// Scheduler ticks at phase boundaries and invokes every enabled event
// whose interval set includes the phase.
type Scheduler struct {
	mu      sync.RWMutex
	events  map[string]*event
	order   []string
	metrics MetricsRecorder
}

// New creates a Scheduler. metrics may be nil if telemetry is not
// wired (e.g. in tests).
func New(metrics MetricsRecorder) *Scheduler {
	return &Scheduler{events: make(map[string]*event), metrics: metrics}
}

// Register adds a new event under name, invoked at each phase in
// intervals (members of Phases; a value outside Phases is stored but
// never fires, since Run only ticks on Phases). Registering a name twice
// replaces the prior event.
func (s *Scheduler) Register(name string, intervals []int, fn EventFunc) {
	set := make(map[int]bool, len(intervals))
	for _, i := range intervals {
		set[i] = true
	}
	e := &event{name: name, intervals: set, fn: fn, enabled: true}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[name]; !exists {
		s.order = append(s.order, name)
	}
	s.events[name] = e
}

// Enable turns a registered event back on. Reports false if name is
// not registered.
func (s *Scheduler) Enable(name string) bool { return s.setEnabled(name, true) }

// Disable turns a registered event off without unregistering it.
// Reports false if name is not registered.
func (s *Scheduler) Disable(name string) bool { return s.setEnabled(name, false) }

func (s *Scheduler) setEnabled(name string, enabled bool) bool {
	s.mu.RLock()
	e, ok := s.events[name]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	e.enabled = enabled
	e.mu.Unlock()
	return true
}

// List returns a snapshot of every registered event, in registration
// order.
func (s *Scheduler) List() []EventInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EventInfo, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.events[name].snapshot())
	}
	return out
}

// Info returns one event's snapshot.
func (s *Scheduler) Info(name string) (EventInfo, bool) {
	s.mu.RLock()
	e, ok := s.events[name]
	s.mu.RUnlock()
	if !ok {
		return EventInfo{}, false
	}
	return e.snapshot(), true
}

// Run blocks, ticking at each phase boundary until ctx is canceled.
// Each boundary's absolute deadline is computed from wall time rather
// than by repeatedly sleeping a fixed duration, so scheduling does not
// drift under load: a slow tick's events still fire, but the next
// tick is timed from the clock, not from when the slow tick finished.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := nextPhaseBoundary(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runPhase(ctx, next.Second())
		}
	}
}

func (s *Scheduler) runPhase(ctx context.Context, phase int) {
	s.mu.RLock()
	names := make([]string, len(s.order))
	copy(names, s.order)
	evts := make([]*event, len(names))
	for i, name := range names {
		evts[i] = s.events[name]
	}
	s.mu.RUnlock()

	for _, e := range evts {
		e.mu.Lock()
		due := e.enabled && e.intervals[phase]
		e.mu.Unlock()
		if due {
			s.invoke(ctx, e)
		}
	}
}

func (s *Scheduler) invoke(ctx context.Context, e *event) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				applog.Error().Interface("panic", r).Str("event", e.name).Msg("scheduler: event panicked")
				err = errPanic(e.name)
			}
		}()
		return e.fn(ctx)
	}()

	e.mu.Lock()
	e.runCount++
	e.lastRun = time.Now()
	if err != nil {
		e.errorCount++
		e.lastError = err.Error()
	}
	e.mu.Unlock()

	if err != nil {
		applog.Error().Err(err).Str("event", e.name).Msg("scheduler: event returned error")
	}
	if s.metrics != nil {
		s.metrics.ObserveSchedulerRun(e.name, err)
	}
}

type errPanic string

func (e errPanic) Error() string { return "scheduler: event " + string(e) + " panicked" }

// nextPhaseBoundary returns the next time strictly after now whose
// second-of-minute is a member of Phases.
func nextPhaseBoundary(now time.Time) time.Time {
	base := now.Truncate(time.Second)
	for offset := 1; offset <= 60; offset++ {
		candidate := base.Add(time.Duration(offset) * tickGranularity)
		if isPhase(candidate.Second()) {
			return candidate
		}
	}
	return base.Add(15 * time.Second)
}

func isPhase(second int) bool {
	for _, p := range Phases {
		if p == second {
			return true
		}
	}
	return false
}
