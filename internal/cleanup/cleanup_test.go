package cleanup

import (
	"sync/atomic"
	"testing"
	"time"
)

type fakeSweeper struct {
	sweeps atomic.Int32
	active int
}

func (f *fakeSweeper) SweepExpired() int {
	f.sweeps.Add(1)
	return 1
}

func (f *fakeSweeper) ActiveCount() int { return f.active }

type fakePruner struct {
	calls  atomic.Int32
	maxAge time.Duration
}

func (f *fakePruner) Cleanup(maxAge time.Duration) int {
	f.calls.Add(1)
	f.maxAge = maxAge
	return 0
}

func TestDefaultConfig(t *testing.T) {
	sweeper := &fakeSweeper{}
	cfg := DefaultConfig(sweeper)

	if cfg.Schedule != "*/10 * * * *" {
		t.Errorf("Schedule = %q, want %q", cfg.Schedule, "*/10 * * * *")
	}
	if cfg.Sessions != sweeper {
		t.Error("Sessions not set")
	}
	if cfg.LimiterMaxAge != 30*time.Minute {
		t.Errorf("LimiterMaxAge = %v, want 30m", cfg.LimiterMaxAge)
	}
}

func TestCleaner_RunOnce(t *testing.T) {
	sweeper := &fakeSweeper{active: 3}
	pruner := &fakePruner{}
	c := New(Config{Schedule: "@hourly", Sessions: sweeper, Limiter: pruner, LimiterMaxAge: time.Minute})

	c.RunOnce()

	if sweeper.sweeps.Load() != 1 {
		t.Errorf("sweeps = %d, want 1", sweeper.sweeps.Load())
	}
	if pruner.calls.Load() != 1 {
		t.Errorf("limiter cleanups = %d, want 1", pruner.calls.Load())
	}
	if pruner.maxAge != time.Minute {
		t.Errorf("maxAge = %v, want 1m", pruner.maxAge)
	}
}

func TestCleaner_RunOnceWithoutLimiter(t *testing.T) {
	sweeper := &fakeSweeper{}
	c := New(Config{Schedule: "@hourly", Sessions: sweeper})

	c.RunOnce()

	if sweeper.sweeps.Load() != 1 {
		t.Errorf("sweeps = %d, want 1", sweeper.sweeps.Load())
	}
}

func TestCleaner_StartStop(t *testing.T) {
	sweeper := &fakeSweeper{}
	c := New(Config{Schedule: "@every 1s", Sessions: sweeper})

	if err := c.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := c.Start(); err == nil {
		t.Error("second Start() should fail")
	}

	// Start runs one pass immediately, the schedule adds more
	deadline := time.Now().Add(3 * time.Second)
	for sweeper.sweeps.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()

	if sweeper.sweeps.Load() < 2 {
		t.Errorf("sweeps = %d, want at least 2", sweeper.sweeps.Load())
	}

	// Stop is idempotent
	c.Stop()
}

func TestCleaner_StartInvalidSchedule(t *testing.T) {
	c := New(Config{Schedule: "not a schedule", Sessions: &fakeSweeper{}})
	if err := c.Start(); err == nil {
		t.Error("Start() should fail on an invalid schedule")
		c.Stop()
	}
}
