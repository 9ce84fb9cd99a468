package engine

import (
	"time"

	"github.com/velist/gametest/internal/platform/logger"
)

// Ticker is the fixed-period heartbeat of a session. It is owned by the
// engine goroutine and is not safe for concurrent use.
type Ticker struct {
	interval   time.Duration
	logger     *logger.Logger
	ticker     *time.Ticker
	tickNumber int64
}

// NewTicker creates a stopped ticker.
func NewTicker(interval time.Duration, log *logger.Logger) *Ticker {
	return &Ticker{
		interval: interval,
		logger:   log,
	}
}

// Start begins ticking. Starting a running ticker is a no-op.
func (t *Ticker) Start() {
	if t.ticker != nil {
		return
	}
	t.ticker = time.NewTicker(t.interval)
	t.logger.Infof("Ticker started (%s). The observer is watching...", t.interval)
}

// Stop halts ticking. Stopping a stopped ticker is a no-op.
func (t *Ticker) Stop() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	t.ticker = nil
	t.logger.Infof("Ticker stopped after %d ticks.", t.tickNumber)
}

// Running reports whether the ticker is active.
func (t *Ticker) Running() bool {
	return t.ticker != nil
}

// C returns the tick channel, or nil while stopped so a select never fires.
func (t *Ticker) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.C
}

// Count increments and returns the tick number.
func (t *Ticker) Count() int64 {
	t.tickNumber++
	return t.tickNumber
}
