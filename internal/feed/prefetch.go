package feed

import (
	"context"
	"errors"
	"github.com/Borislavv/go-ash-feed/internal/shared/rate"
	"strings"
)

// prefetchLocked starts a fire-and-forget load of the item at index unless
// its asset is already cached or being prefetched. A completed prefetch is
// cached even if the window has moved on; cleanup decides residency.
func (c *Controller) prefetchLocked(index int) {
	url := c.items[index].URL
	if strings.TrimSpace(url) == "" {
		c.logger.Debug("not prefetching item without url", "id", c.items[index].ID, "index", index)
		return
	}
	if c.cache.Contains(url) {
		return
	}
	if _, ok := c.prefetching[url]; ok {
		return
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout := c.cfg.Prefetch.Timeout; timeout > 0 {
		ctx, cancel = context.WithTimeout(c.ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(c.ctx)
	}

	job := &inflight{cancel: cancel}
	c.prefetching[url] = job
	c.counters.prefetchStarted.Add(1)
	c.metrics.PrefetchStarted()

	c.wg.Add(1)
	go c.prefetch(ctx, url, job)
}

func (c *Controller) prefetch(ctx context.Context, url string, job *inflight) {
	defer c.wg.Done()
	defer func() {
		job.cancel()
		c.mu.Lock()
		if c.prefetching[url] == job {
			delete(c.prefetching, url)
		}
		c.mu.Unlock()
	}()

	if err := c.jitter.Wait(ctx); err != nil {
		c.prefetchFailed(url, err)
		return
	}

	h := c.cache.NewHandle(url)
	if err := h.Load(ctx); err != nil {
		c.prefetchFailed(url, err)
		return
	}
	if !c.cache.InsertIfAbsent(h, url) {
		// a cell already holds its own handle for this url
		_ = h.Close()
	}

	c.counters.prefetchCompleted.Add(1)
	c.metrics.PrefetchCompleted()
}

// prefetchFailed records a failed load. Cancellation from CancelPrefetch or
// Close is not a failure; a timeout is.
func (c *Controller) prefetchFailed(url string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, rate.ErrJitterStopped) {
		c.counters.prefetchCancelled.Add(1)
		c.logger.Debug("prefetch cancelled", "url", url)
		return
	}
	c.counters.prefetchFailed.Add(1)
	c.metrics.PrefetchFailed()
	c.logger.Warn("prefetch failed", "url", url, "err", err.Error())
}

// CancelPrefetch cancels in-flight prefetches for the items at indices and
// returns how many were cancelled. Scrolling never calls it.
func (c *Controller) CancelPrefetch(indices ...int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cancelled int
	for _, i := range indices {
		if i < 0 || i >= len(c.items) {
			continue
		}
		if job, ok := c.prefetching[c.items[i].URL]; ok {
			job.cancel()
			cancelled++
		}
	}
	return cancelled
}
