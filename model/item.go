package model

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrMissingID  = errors.New("video item has no identifier")
	ErrMissingURL = errors.New("video item has no media url")
)

// VideoItem is one record of the feed. Everything except counters is immutable
// once the item entered the feed.
type VideoItem struct {
	ID        string
	URL       string
	CreatorID string
	CreatedAt time.Time

	counters Counters
}

func NewVideoItem(id, url, creatorID string, createdAt time.Time, counts CountersSnapshot) *VideoItem {
	item := &VideoItem{ID: id, URL: url, CreatorID: creatorID, CreatedAt: createdAt}
	item.counters.Reconcile(counts)
	return item
}

func (v *VideoItem) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(v.URL) == "" {
		return ErrMissingURL
	}
	return nil
}

func (v *VideoItem) Counters() *Counters { return &v.counters }

type CounterKind uint8

const (
	Likes CounterKind = iota
	Comments
	Bookmarks
	Views
)

func (k CounterKind) String() string {
	switch k {
	case Likes:
		return "likes"
	case Comments:
		return "comments"
	case Bookmarks:
		return "bookmarks"
	case Views:
		return "views"
	default:
		return "unknown"
	}
}

type CountersSnapshot struct {
	Likes     int64
	Comments  int64
	Bookmarks int64
	Views     int64
}

// Counters hold backend-reported counts plus optimistic local deltas.
// Reconcile makes the backend value authoritative again.
type Counters struct {
	mu      sync.Mutex
	remote  CountersSnapshot
	pending CountersSnapshot
}

// Add applies an optimistic local change. The result never drops below zero.
func (c *Counters) Add(kind CounterKind, delta int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	remote, pending := c.remote.field(kind), c.pending.field(kind)
	if *remote+*pending+delta < 0 {
		delta = -(*remote + *pending)
	}
	*pending += delta
	return *remote + *pending
}

// Reconcile replaces backend counts and drops pending optimistic deltas.
func (c *Counters) Reconcile(remote CountersSnapshot) {
	c.mu.Lock()
	c.remote = remote
	c.pending = CountersSnapshot{}
	c.mu.Unlock()
}

func (c *Counters) Snapshot() CountersSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CountersSnapshot{
		Likes:     c.remote.Likes + c.pending.Likes,
		Comments:  c.remote.Comments + c.pending.Comments,
		Bookmarks: c.remote.Bookmarks + c.pending.Bookmarks,
		Views:     c.remote.Views + c.pending.Views,
	}
}

// Pending reports the optimistic deltas not yet confirmed by the backend.
func (c *Counters) Pending() CountersSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (s *CountersSnapshot) field(kind CounterKind) *int64 {
	switch kind {
	case Likes:
		return &s.Likes
	case Comments:
		return &s.Comments
	case Bookmarks:
		return &s.Bookmarks
	default:
		return &s.Views
	}
}
