// Package rate spreads bursts of background starts over time.
package rate

import (
	"context"
	"errors"
	"go.uber.org/ratelimit"
	"time"
)

var ErrJitterStopped = errors.New("jitter stopped")

// Jitter hands out start tokens at limit per second. Up to a tenth of a
// second of tokens is buffered, so a short idle period allows a small burst.
type Jitter struct {
	ch     chan struct{}
	l      ratelimit.Limiter
	limit  int
	cancel context.CancelFunc
	done   chan struct{}
}

// NewJitter starts the token provider; it stops and closes the channel when
// ctx is done or Close is called. A limit below 1 is raised to 1.
func NewJitter(ctx context.Context, limit int) *Jitter {
	ctx, cancel := context.WithCancel(ctx)
	limit = max(limit, 1)
	j := &Jitter{
		limit:  limit,
		ch:     make(chan struct{}, max(limit/10, 1)),
		l:      ratelimit.New(limit, ratelimit.WithClock(ctxClock{ctx: ctx})),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go j.provider(ctx)
	return j
}

func (j *Jitter) provider(ctx context.Context) {
	defer close(j.done)
	defer close(j.ch)
	for ctx.Err() == nil {
		j.l.Take()
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case j.ch <- struct{}{}:
		}
	}
}

func (j *Jitter) Limit() int { return j.limit }
func (j *Jitter) Burst() int { return cap(j.ch) }

// Wait blocks until a token is available or ctx is done.
func (j *Jitter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-j.ch:
		if !ok {
			return ErrJitterStopped
		}
		return nil
	}
}

// Close stops the provider and waits for it to exit.
func (j *Jitter) Close() error {
	j.cancel()
	<-j.done
	return nil
}

// ctxClock cuts the limiter's pacing sleep short once ctx is done.
type ctxClock struct {
	ctx context.Context
}

func (c ctxClock) Now() time.Time { return time.Now() }

func (c ctxClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-c.ctx.Done():
	}
}
