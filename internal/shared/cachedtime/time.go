package cachedtime

import (
	"context"
	"sync/atomic"
	"time"
)

const DefaultResolution = 10 * time.Millisecond

// Clock serves the wall clock from a value refreshed by a ticker.
// Once its context is done it falls back to time.Now.
type Clock struct {
	nowUnix atomic.Int64
	closed  atomic.Bool
}

func New(ctx context.Context, resolution time.Duration) *Clock {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	c := &Clock{}
	c.nowUnix.Store(time.Now().UnixNano())

	ticker := time.NewTicker(resolution)
	go func() {
		defer ticker.Stop()
		defer c.closed.Store(true)
		for {
			select {
			case tt := <-ticker.C:
				c.nowUnix.Store(tt.UnixNano())
			case <-ctx.Done():
				return
			}
		}
	}()
	return c
}

func (c *Clock) NowUnixNano() int64 {
	if c.closed.Load() {
		return time.Now().UnixNano()
	}
	return c.nowUnix.Load()
}

func (c *Clock) Now() time.Time {
	return time.Unix(0, c.NowUnixNano())
}

func (c *Clock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}
