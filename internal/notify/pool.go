package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Pool runs fire-and-forget tasks on at most Workers goroutines, each under
// its own timeout. Task errors go to the log. Tasks are detached from the
// caller's context so a finished request does not cancel them.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.Mutex // guards closed and wg.Add
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool returns a pool with the given width and per-task timeout.
func NewPool(workers int, timeout time.Duration, log zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Go schedules fn. It never blocks the caller; if the pool is closed the
// task is dropped and logged.
func (p *Pool) Go(name string, fn func(ctx context.Context) error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.Warn().Str("task", name).Msg("pool closed; task dropped")
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			p.log.Warn().Str("task", name).Msg("pool closed; task dropped")
			return
		}
		defer p.sem.Release(1)

		ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				p.log.Error().Str("task", name).Interface("panic", r).Msg("async task panicked")
			}
		}()
		if err := fn(ctx); err != nil {
			p.log.Warn().Err(err).Str("task", name).Msg("async task failed")
		}
	}()
}

// Wait blocks until every scheduled task has returned.
func (p *Pool) Wait() { p.wg.Wait() }

// Close stops accepting tasks, then waits for scheduled ones up to ctx.
// Tasks still queued or running when ctx expires are cancelled.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}
