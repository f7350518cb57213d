package jobs

import (
	"context"
	"log"
	"time"
)

// SessionSweeper drops sessions that have been idle past their TTL
type SessionSweeper interface {
	DeleteExpired() int
	Count() int
}

// SessionSweepJob evicts idle working-memory sessions
type SessionSweepJob struct {
	sessions SessionSweeper
	interval time.Duration
}

// NewSessionSweepJob creates the sweep job. A non-positive interval means one minute.
func NewSessionSweepJob(sessions SessionSweeper, interval time.Duration) *SessionSweepJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweepJob{sessions: sessions, interval: interval}
}

// Run sweeps once
func (j *SessionSweepJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	removed := j.sessions.DeleteExpired()
	if removed > 0 {
		log.Printf("🧹 [SESSION-SWEEP] Removed %d idle sessions (%d remaining)", removed, j.sessions.Count())
	}
	return nil
}

// Interval returns how often the sweep runs
func (j *SessionSweepJob) Interval() time.Duration {
	return j.interval
}
