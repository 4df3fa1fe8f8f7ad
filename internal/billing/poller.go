package billing

import (
	"context"
	"sync"
	"time"
)

// Poller runs tick on a fixed interval in its own goroutine until tick
// returns false or Stop is called.
type Poller struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartPoller starts polling. The first tick happens one interval from now.
func StartPoller(parent context.Context, interval time.Duration, tick func(ctx context.Context) bool) *Poller {
	ctx, cancel := context.WithCancel(parent)
	p := &Poller{cancel: cancel, done: make(chan struct{})}
	go p.run(ctx, interval, tick)
	return p
}

func (p *Poller) run(ctx context.Context, interval time.Duration, tick func(context.Context) bool) {
	defer close(p.done)
	defer p.Stop()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !tick(ctx) {
				return
			}
		}
	}
}

// Stop cancels the poller. Only the first call has an effect. It does not
// wait for a running tick to return.
func (p *Poller) Stop() {
	p.once.Do(p.cancel)
}

// Wait blocks until the polling goroutine has exited.
func (p *Poller) Wait() { <-p.done }

// Done is closed once the polling goroutine has exited.
func (p *Poller) Done() <-chan struct{} { return p.done }
