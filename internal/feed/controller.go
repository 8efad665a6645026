// Package feed drives residency of feed media while the user scrolls: what
// plays, what is prefetched, what is evicted, and when the next page is fetched.
package feed

import (
	"context"
	"errors"
	"fmt"
	"github.com/Borislavv/go-ash-feed/config"
	"github.com/Borislavv/go-ash-feed/internal/cache"
	"github.com/Borislavv/go-ash-feed/internal/shared/rate"
	"github.com/Borislavv/go-ash-feed/internal/source"
	"github.com/Borislavv/go-ash-feed/internal/window"
	"github.com/Borislavv/go-ash-feed/model"
	"golang.org/x/sync/singleflight"
	"log/slog"
	"sync"
)

var (
	ErrIndexOutOfRange = errors.New("feed index out of range")
	ErrEventDropped    = errors.New("events buffer is full, event dropped")
	ErrClosed          = errors.New("feed controller is closed")
)

const loadMoreKey = "load_more"

type Option func(c *Controller)

func WithClock(clock Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithPrefetchMetrics(m PrefetchMetrics) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

type inflight struct {
	cancel context.CancelFunc
}

// Controller owns the ordered item list and the scroll position of one feed.
//
// Every mutation of the list, the position, the realized cells and the scroll
// state happens under mu, which plays the role of the UI thread. Background
// work (page fetches, prefetches) takes mu before touching that state.
type Controller struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.Feed
	logger   *slog.Logger
	cache    cache.Cacher
	source   source.Source
	window   window.Window
	clock    Clock
	jitter   *rate.Jitter
	metrics  PrefetchMetrics
	counters *counters
	pages    singleflight.Group
	events   chan Event
	wg       sync.WaitGroup

	mu          sync.Mutex
	closed      bool
	items       []*model.VideoItem
	index       map[string]int // item id -> position
	cursor      source.Cursor
	exhausted   bool
	generation  uint64 // bumped by Refresh so stale pages are dropped
	state       State
	current     int
	playing     int
	cells       map[int]Cell
	lastCleanup int64
	prefetching map[string]*inflight // by url
}

func New(
	ctx context.Context,
	cfg *config.Feed,
	c cache.Cacher,
	src source.Source,
	logger *slog.Logger,
	opts ...Option,
) *Controller {
	ctx, cancel := context.WithCancel(ctx)
	ctrl := &Controller{
		ctx:         ctx,
		cancel:      cancel,
		cfg:         cfg,
		logger:      logger,
		cache:       c,
		source:      src,
		window:      window.New(cfg.Window.Size),
		clock:       systemClock{},
		metrics:     noopPrefetchMetrics{},
		counters:    newCounters(),
		events:      make(chan Event, max(cfg.Controller.EventsBuffer, 1)),
		index:       make(map[string]int),
		current:     -1,
		playing:     -1,
		cells:       make(map[int]Cell),
		prefetching: make(map[string]*inflight),
	}
	for _, opt := range opts {
		opt(ctrl)
	}
	if cfg.Prefetch.Enabled() {
		ctrl.jitter = rate.NewJitter(ctx, cfg.Prefetch.Rate)
	}
	return ctrl
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current is the index the feed last settled on, -1 before the first settle.
func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Items returns a copy of the realized list.
func (c *Controller) Items() []*model.VideoItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*model.VideoItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Controller) Item(i int) (*model.VideoItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.items) {
		return nil, false
	}
	return c.items[i], true
}

// Exhausted reports whether the source has no pages left.
func (c *Controller) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhausted
}

func (c *Controller) Events() <-chan Event { return c.events }

func (c *Controller) Metrics() (prefetchStarted, prefetchCompleted, prefetchFailed, pagesLoaded, cleanups int64) {
	return c.counters.snapshot()
}

// ScrollBegan moves the controller into Scrolling.
func (c *Controller) ScrollBegan() {
	c.mu.Lock()
	c.state = Scrolling
	c.mu.Unlock()
}

// ScrollSettled runs the settle transition for index and returns to Idle.
func (c *Controller) ScrollSettled(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if index < 0 || index >= len(c.items) {
		c.state = Idle
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(c.items))
	}
	c.state = Settled

	// one playback at a time: pause the previous cell before starting the next
	if c.playing >= 0 && c.playing != index {
		if cell, ok := c.cells[c.playing]; ok {
			cell.Pause()
		}
	}
	c.playing = index
	if cell, ok := c.cells[index]; ok {
		cell.Play()
	}
	c.current = index

	total := len(c.items)
	lo, hi := c.window.Bounds(index, total)

	if now := c.clock.NowUnixNano(); now-c.lastCleanup >= c.cfg.Controller.CleanupInterval.Nanoseconds() {
		c.cleanupLocked(lo, hi)
		c.lastCleanup = now
	}

	if c.jitter != nil {
		for _, n := range [...]int{index - 1, index + 1} {
			if n >= 0 && n < total {
				c.prefetchLocked(n)
			}
		}
	}

	if !c.exhausted && total-1-index < c.cfg.Pagination.Threshold {
		c.loadMoreAsyncLocked()
	}

	c.state = Idle
	return nil
}

// cleanupLocked drops cache entries and realized cells outside [lo, hi).
func (c *Controller) cleanupLocked(lo, hi int) {
	keep := make(map[string]struct{}, hi-lo)
	for i := lo; i < hi; i++ {
		keep[c.items[i].URL] = struct{}{}
	}

	var evicted int
	for _, url := range c.cache.Keys() {
		if _, ok := keep[url]; !ok && c.cache.Remove(url) {
			evicted++
		}
	}

	var recycled int
	for i, cell := range c.cells {
		if i < lo || i >= hi {
			cell.PrepareForReuse()
			delete(c.cells, i)
			recycled++
		}
	}

	c.counters.cleanups.Add(1)
	if evicted > 0 || recycled > 0 {
		c.logger.Debug("feed cleanup", "lo", lo, "hi", hi, "evicted", evicted, "recycled", recycled)
	}
}

// Realize configures cell for the item at index. A cell realized at the
// settled index starts playing.
func (c *Controller) Realize(index int, cell Cell) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(c.items))
	}

	item := c.items[index]
	h, err := c.cache.GetOrCreate(item.URL)
	if err != nil {
		c.logger.Warn("item has no playable asset", "id", item.ID, "index", index, "err", err.Error())
	}

	if prev, ok := c.cells[index]; ok && prev != cell {
		prev.PrepareForReuse()
	}
	c.cells[index] = cell
	cell.Configure(item, h)
	if index == c.playing {
		cell.Play()
	}
	return nil
}

// Unrealize recycles the cell at index, if any.
func (c *Controller) Unrealize(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cell, ok := c.cells[index]; ok {
		cell.PrepareForReuse()
		delete(c.cells, index)
	}
}

// Signal emits a user action for the item at index. Like and Bookmark bump
// the item's counters optimistically until the backend reconciles them.
func (c *Controller) Signal(kind EventKind, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(c.items))
	}

	item := c.items[index]
	switch kind {
	case Like:
		item.Counters().Add(model.Likes, 1)
	case Bookmark:
		item.Counters().Add(model.Bookmarks, 1)
	}

	select {
	case c.events <- Event{Kind: kind, Index: index, Item: item}:
		return nil
	default:
		c.logger.Warn("events buffer is full, dropping event", "kind", kind.String(), "id", item.ID)
		return ErrEventDropped
	}
}

// Reconcile applies backend-reported counters to the item with id.
func (c *Controller) Reconcile(id string, counts model.CountersSnapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.items[i].Counters().Reconcile(counts)
	return true
}

// HandleMemoryPressure drops every cached asset, memory and disk.
func (c *Controller) HandleMemoryPressure() {
	c.logger.Warn("memory pressure, evicting all assets")
	c.cache.EvictAll()
}

// Close stops background work and closes the events channel.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	if c.jitter != nil {
		_ = c.jitter.Close()
	}
	close(c.events)
	return nil
}
