package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobState is one loop's most recent outcome, exposed through the
// status view.
type JobState struct {
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
}

// State tracks per-loop run outcomes. Loops write it only through their
// scheduler entry point; everything else reads snapshots.
type State struct {
	mu   sync.Mutex
	jobs map[string]JobState
}

// NewState creates an empty State.
func NewState() *State {
	return &State{jobs: map[string]JobState{}}
}

func (s *State) record(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	js := JobState{LastRun: time.Now().UTC()}
	if err != nil {
		js.LastError = err.Error()
	}
	s.jobs[name] = js
}

// Snapshot returns a copy of every loop's state.
func (s *State) Snapshot() map[string]JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]JobState, len(s.jobs))
	for name, js := range s.jobs {
		out[name] = js
	}
	return out
}

// Scheduler runs the periodic loops on cron schedules. Each loop records
// its outcome in the shared State; a failed run never stops the schedule.
type Scheduler struct {
	cron   *cron.Cron
	state  *State
	logger *slog.Logger
}

// New creates a stopped Scheduler.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		state:  NewState(),
		logger: logger.With("component", "scheduler"),
	}
}

// EverySpec renders a duration as a cron @every expression.
func EverySpec(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

// Register adds a named loop on the given cron spec.
func (s *Scheduler) Register(name, spec string, run func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		err := run(context.Background())
		s.state.record(name, err)
		if err != nil {
			s.logger.Error("scheduled run failed",
				"job", name,
				"error", err)
			return
		}
		s.logger.Debug("scheduled run finished",
			"job", name,
			"duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

// Start begins running registered loops in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and returns a context that is done once any
// in-flight run finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// State returns the shared run-state tracker.
func (s *Scheduler) State() *State {
	return s.state
}
