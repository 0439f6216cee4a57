package core

import (
	"context"
	"sync"
	"time"
)

// PollState is the lifecycle state of a Poller.
type PollState int

const (
	// StateRunning means cycles are being executed.
	StateRunning PollState = iota
	// StateStopping means cancellation was observed after a completed cycle.
	StateStopping
)

func (s PollState) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// Poller runs a read-aggregate-render cycle at a fixed interval. A cycle is
// never interrupted: cancellation is only observed between cycles and during
// the sleep, so the last frame on screen is always complete.
type Poller struct {
	interval time.Duration

	mu    sync.Mutex
	state PollState
	iter  int
}

// NewPoller creates a Poller sleeping interval between cycles.
func NewPoller(interval time.Duration) *Poller {
	return &Poller{interval: interval, state: StateRunning}
}

// State returns the current state.
func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Iterations returns the number of completed cycles.
func (p *Poller) Iterations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.iter
}

// Run executes cycle until ctx is cancelled and returns the number of
// completed cycles. cycle receives the 1-based iteration number.
func (p *Poller) Run(ctx context.Context, cycle func(iteration int)) int {
	for {
		p.mu.Lock()
		n := p.iter + 1
		p.mu.Unlock()

		cycle(n)

		p.mu.Lock()
		p.iter = n
		p.mu.Unlock()

		if ctx.Err() != nil {
			return p.stop()
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return p.stop()
		case <-timer.C:
		}
	}
}

func (p *Poller) stop() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateStopping
	return p.iter
}
