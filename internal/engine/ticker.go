package engine

import (
	"context"
	"sync"
	"time"

	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
)

// Ticker calls a function at a fixed interval until stopped.
// It does NOT know about the player - only time progression.
type Ticker struct {
	name     string
	interval time.Duration
	fn       func()
	logger   *logger.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewTicker creates a ticker. Nothing runs until Start.
func NewTicker(name string, interval time.Duration, fn func(), log *logger.Logger) *Ticker {
	return &Ticker{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	defer close(t.done)
	t.logger.Infof("%s ticker started (every %v)", t.name, t.interval)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Infof("%s ticker stopped by context.", t.name)
			return
		case <-t.stopChan:
			t.logger.Infof("%s ticker stopped manually.", t.name)
			return
		case <-ticker.C:
			t.fn()
		}
	}
}

// Stop gracefully stops the ticker. Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

// Done is closed once the loop has returned.
func (t *Ticker) Done() <-chan struct{} {
	return t.done
}
