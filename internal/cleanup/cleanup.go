// Package cleanup runs periodic housekeeping for the gateway: idle session
// expiry and pruning of per-client rate limiters.
package cleanup

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/HyphaGroup/adgate/internal/logger"
	"github.com/HyphaGroup/adgate/internal/metrics"
)

// Sweeper removes idle sessions
type Sweeper interface {
	SweepExpired() int
	ActiveCount() int
}

// LimiterPruner drops rate limiter state for clients that went quiet
type LimiterPruner interface {
	Cleanup(maxAge time.Duration) int
}

// Cleaner performs scheduled cleanup.
type Cleaner struct {
	schedule      string
	sessions      Sweeper
	limiter       LimiterPruner
	limiterMaxAge time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

// Config holds cleanup configuration.
type Config struct {
	// Schedule is a 5-field cron expression or @descriptor.
	Schedule string
	Sessions Sweeper
	// Limiter is optional; nil when rate limiting is disabled.
	Limiter       LimiterPruner
	LimiterMaxAge time.Duration
}

// DefaultConfig sweeps every ten minutes and prunes rate limiters idle for
// half an hour.
func DefaultConfig(sessions Sweeper) Config {
	return Config{
		Schedule:      "*/10 * * * *",
		Sessions:      sessions,
		LimiterMaxAge: 30 * time.Minute,
	}
}

// New creates a new Cleaner with the given configuration.
func New(cfg Config) *Cleaner {
	return &Cleaner{
		schedule:      cfg.Schedule,
		sessions:      cfg.Sessions,
		limiter:       cfg.Limiter,
		limiterMaxAge: cfg.LimiterMaxAge,
	}
}

// Start runs one cleanup pass immediately and then schedules the rest.
func (c *Cleaner) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return fmt.Errorf("cleanup already started")
	}

	sched := cron.New()
	if _, err := sched.AddFunc(c.schedule, c.RunOnce); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", c.schedule, err)
	}

	c.RunOnce()
	sched.Start()
	c.cron = sched

	logger.Printf("🧹 Cleanup started (schedule=%q)", c.schedule)
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (c *Cleaner) Stop() {
	c.mu.Lock()
	sched := c.cron
	c.cron = nil
	c.mu.Unlock()

	if sched != nil {
		<-sched.Stop().Done()
		logger.Println("🧹 Cleanup stopped")
	}
}

// RunOnce performs all cleanup tasks.
func (c *Cleaner) RunOnce() {
	if c.sessions != nil {
		if removed := c.sessions.SweepExpired(); removed > 0 {
			logger.Printf("🧹 Expired %d idle sessions", removed)
		}
		metrics.SetActiveSessions(c.sessions.ActiveCount())
	}

	if c.limiter != nil && c.limiterMaxAge > 0 {
		if removed := c.limiter.Cleanup(c.limiterMaxAge); removed > 0 {
			logger.Printf("🧹 Dropped %d idle rate limiters", removed)
		}
	}
}
