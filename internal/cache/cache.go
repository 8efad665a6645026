package cache

import (
	"container/list"
	"github.com/Borislavv/go-ash-feed/config"
	"github.com/Borislavv/go-ash-feed/internal/asset"
	"github.com/Borislavv/go-ash-feed/internal/disk"
	"github.com/Borislavv/go-ash-feed/model"
	"log/slog"
	"strings"
	"sync"
)

type Cacher interface {
	GetOrCreate(url string) (*asset.Handle, error)
	NewHandle(url string) *asset.Handle
	Insert(h *asset.Handle, key string)
	InsertIfAbsent(h *asset.Handle, key string) bool
	Get(url string) (*asset.Handle, bool)
	Contains(url string) bool
	Remove(url string) bool
	Keys() []string
	EvictAll()
	PruneDiskCache() (freed, removed int64, err error)
	CacheMetrics() (hits, misses, inserts, evictedItems, evictedBytes int64)
	Len() int64
	Mem() int64
}

type Option func(c *Cache)

// WithDisk attaches the on-disk cache that handles warm into and EvictAll clears.
func WithDisk(d *disk.Cache, warmBytes int64) Option {
	return func(c *Cache) {
		c.disk = d
		c.warmBytes = warmBytes
	}
}

func WithMetrics(m Metrics) Option {
	return func(c *Cache) {
		if m != nil {
			c.metrics = m
		}
	}
}

type entry struct {
	key    string
	handle *asset.Handle
	cost   int64
	elem   *list.Element
}

// Cache maps media URLs to lazy asset handles. It is bounded by entry count
// and by the summed cost of handles, evicting least recently used first.
// All methods are safe for concurrent use.
type Cache struct {
	cfg       *config.CacheCfg
	fetcher   asset.Fetcher
	disk      *disk.Cache
	warmBytes int64
	logger    *slog.Logger
	metrics   Metrics
	counters  *counters

	mu    sync.Mutex
	items map[string]*entry
	lru   *list.List // front is most recently used
	mem   int64
}

func New(cfg *config.CacheCfg, fetcher asset.Fetcher, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		cfg:      cfg,
		fetcher:  fetcher,
		logger:   logger,
		metrics:  NoopMetrics{},
		counters: &counters{},
		items:    make(map[string]*entry, max(cfg.MaxEntries, 0)),
		lru:      list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate returns the cached handle for url or inserts a new lazy one.
// It never blocks on the network. An empty url is rejected and not cached.
func (c *Cache) GetOrCreate(url string) (*asset.Handle, error) {
	if strings.TrimSpace(url) == "" {
		c.logger.Warn("skipping asset without url")
		return nil, model.ErrMissingURL
	}

	c.mu.Lock()
	if e, ok := c.items[url]; ok {
		c.lru.MoveToFront(e.elem)
		c.mu.Unlock()
		c.hit()
		return e.handle, nil
	}
	c.miss()

	h := c.NewHandle(url)
	victims := c.setLocked(url, h)
	c.mu.Unlock()

	c.release(victims)
	c.watch(url, h)
	return h, nil
}

// NewHandle builds a handle configured like the ones the cache creates,
// without inserting it.
func (c *Cache) NewHandle(url string) *asset.Handle {
	opts := []asset.Option{
		asset.WithDefaultCost(c.cfg.DefaultAssetCost.Int64()),
		asset.WithLogger(c.logger),
	}
	if c.disk != nil {
		opts = append(opts, asset.WithDisk(c.disk, c.warmBytes))
	}
	return asset.New(url, c.fetcher, opts...)
}

// Insert stores a handle resolved elsewhere under key, replacing and closing
// any other handle cached under the same key.
func (c *Cache) Insert(h *asset.Handle, key string) {
	if h == nil || strings.TrimSpace(key) == "" {
		return
	}

	c.mu.Lock()
	victims := c.setLocked(key, h)
	c.mu.Unlock()

	c.release(victims)
	c.watch(key, h)
}

// InsertIfAbsent stores h under key unless another handle is already cached
// there. It reports whether h was stored.
func (c *Cache) InsertIfAbsent(h *asset.Handle, key string) bool {
	if h == nil || strings.TrimSpace(key) == "" {
		return false
	}

	c.mu.Lock()
	if _, ok := c.items[key]; ok {
		c.mu.Unlock()
		return false
	}
	victims := c.setLocked(key, h)
	c.mu.Unlock()

	c.release(victims)
	c.watch(key, h)
	return true
}

func (c *Cache) Get(url string) (*asset.Handle, bool) {
	c.mu.Lock()
	e, ok := c.items[url]
	if ok {
		c.lru.MoveToFront(e.elem)
	}
	c.mu.Unlock()

	if !ok {
		c.miss()
		return nil, false
	}
	c.hit()
	return e.handle, true
}

// Contains reports presence without touching recency.
func (c *Cache) Contains(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[url]
	return ok
}

func (c *Cache) Remove(url string) bool {
	c.mu.Lock()
	e, ok := c.items[url]
	if ok {
		c.deleteLocked(e)
	}
	c.mu.Unlock()

	if ok {
		c.release([]victim{{handle: e.handle, cost: e.cost, reason: EvictRemoved}})
	}
	return ok
}

// Keys lists cached urls from most to least recently used.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.lru.Len())
	for el := c.lru.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry).key)
	}
	return keys
}

// EvictAll drops every entry and clears the disk cache. Calling it on an
// empty cache is a no-op apart from the disk sweep.
func (c *Cache) EvictAll() {
	c.mu.Lock()
	victims := make([]victim, 0, len(c.items))
	for el := c.lru.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry)
		victims = append(victims, victim{handle: e.handle, cost: e.cost, reason: EvictPurge})
	}
	c.items = make(map[string]*entry, max(c.cfg.MaxEntries, 0))
	c.lru.Init()
	c.mem = 0
	c.mu.Unlock()

	c.release(victims)

	if c.disk != nil {
		if _, err := c.disk.Clear(); err != nil {
			c.logger.Error("failed to clear disk cache", "err", err.Error())
		}
	}
	c.logger.Info("asset cache evicted", "entries", len(victims))
}

// PruneDiskCache trims the disk cache to its size ceiling, oldest files first.
// It is safe to run while handles are writing.
func (c *Cache) PruneDiskCache() (freed, removed int64, err error) {
	if c.disk == nil {
		return 0, 0, nil
	}
	return c.disk.Prune()
}

func (c *Cache) CacheMetrics() (hits, misses, inserts, evictedItems, evictedBytes int64) {
	return c.counters.snapshot()
}

func (c *Cache) Len() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.items))
}

func (c *Cache) Mem() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mem
}

/**
 * Private API.
 */

type victim struct {
	handle *asset.Handle
	cost   int64
	reason EvictReason
}

func (c *Cache) hit() {
	c.counters.hits.Add(1)
	c.metrics.Hit()
}

func (c *Cache) miss() {
	c.counters.misses.Add(1)
	c.metrics.Miss()
}

// setLocked inserts or replaces key as the most recently used entry and
// returns whatever had to leave the cache.
func (c *Cache) setLocked(key string, h *asset.Handle) []victim {
	var victims []victim
	cost := h.Cost()

	if e, ok := c.items[key]; ok {
		if e.handle != h {
			victims = append(victims, victim{handle: e.handle, reason: EvictRemoved})
			e.handle = h
		}
		c.mem += cost - e.cost
		e.cost = cost
		c.lru.MoveToFront(e.elem)
	} else {
		e = &entry{key: key, handle: h, cost: cost}
		e.elem = c.lru.PushFront(e)
		c.items[key] = e
		c.mem += cost
		c.counters.inserts.Add(1)
	}

	return append(victims, c.enforceLimitsLocked()...)
}

// enforceLimitsLocked pops the LRU tail until both bounds hold.
func (c *Cache) enforceLimitsLocked() []victim {
	var victims []victim
	for c.lru.Len() > 0 {
		reason := EvictCapacity
		if !c.overCountLocked() {
			if !c.overCostLocked() {
				break
			}
			reason = EvictCost
		}
		e := c.lru.Back().Value.(*entry)
		c.deleteLocked(e)
		victims = append(victims, victim{handle: e.handle, cost: e.cost, reason: reason})
	}
	return victims
}

func (c *Cache) overCountLocked() bool {
	return c.cfg.MaxEntries > 0 && c.lru.Len() > c.cfg.MaxEntries
}

func (c *Cache) overCostLocked() bool {
	return c.cfg.MaxBytes > 0 && c.mem > c.cfg.MaxBytes.Int64()
}

func (c *Cache) deleteLocked(e *entry) {
	c.lru.Remove(e.elem)
	delete(c.items, e.key)
	c.mem -= e.cost
}

// release closes evicted handles outside the lock and reports them.
func (c *Cache) release(victims []victim) {
	for _, v := range victims {
		_ = v.handle.Close()
		c.counters.evicted(v.reason, v.cost)
		c.metrics.Evict(v.reason)
	}

	c.mu.Lock()
	entries, mem := len(c.items), c.mem
	c.mu.Unlock()
	c.metrics.Size(entries, mem)
}

func (c *Cache) watch(key string, h *asset.Handle) {
	h.OnResolve(func(h *asset.Handle) { c.onResolve(key, h) })
}

// onResolve re-weighs a handle that became Ready and drops one that Failed,
// so the next natural trigger can retry it.
func (c *Cache) onResolve(key string, h *asset.Handle) {
	c.mu.Lock()
	e, ok := c.items[key]
	if !ok || e.handle != h {
		c.mu.Unlock()
		return
	}

	var victims []victim
	if h.Status() == asset.Failed {
		c.deleteLocked(e)
		victims = append(victims, victim{handle: h, cost: e.cost, reason: EvictFailed})
	} else {
		cost := h.Cost()
		c.mem += cost - e.cost
		e.cost = cost
		victims = c.enforceLimitsLocked()
	}
	c.mu.Unlock()

	if h.Status() == asset.Failed {
		c.logger.Warn("asset failed to load", "url", h.URL(), "err", errString(h.Err()))
	}
	c.release(victims)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
