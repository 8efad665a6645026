package feed

import (
	"context"
	"errors"
	"github.com/Borislavv/go-ash-feed/internal/source"
	"github.com/Borislavv/go-ash-feed/model"
)

const refreshKey = "refresh"

// Load fetches the first page unless items are already present.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	loaded := len(c.items) > 0 || c.exhausted
	c.mu.Unlock()

	if loaded {
		return nil
	}
	_, err := c.LoadMore(ctx)
	return err
}

// LoadMore fetches the page after the current cursor and appends the items
// not already in the list. Concurrent calls share one fetch. It returns the
// number of appended items; zero once the source is exhausted.
func (c *Controller) LoadMore(ctx context.Context) (int, error) {
	ch := c.pages.DoChan(loadMoreKey, func() (any, error) {
		return c.loadMore()
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return 0, r.Err
		}
		return r.Val.(int), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (c *Controller) loadMore() (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrClosed
	}
	if c.exhausted {
		c.mu.Unlock()
		return 0, nil
	}
	cursor, gen := c.cursor, c.generation
	c.mu.Unlock()

	page, err := c.fetch(cursor)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		// the list was refetched while this page was in flight
		return 0, nil
	}
	added := c.appendLocked(page.Items)
	c.cursor = page.Next
	c.exhausted = page.Done
	c.counters.pagesLoaded.Add(1)

	c.logger.Debug("feed page loaded", "added", added, "total", len(c.items), "exhausted", c.exhausted)
	return added, nil
}

// Refresh refetches the first page and replaces the list with it. Realized
// cells are recycled and playback stops; cached assets are kept.
func (c *Controller) Refresh(ctx context.Context) error {
	ch := c.pages.DoChan(refreshKey, func() (any, error) {
		page, err := c.fetch(source.Cursor{})
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed {
			return nil, ErrClosed
		}
		c.generation++
		for i, cell := range c.cells {
			cell.PrepareForReuse()
			delete(c.cells, i)
		}
		c.items = nil
		c.index = make(map[string]int, len(page.Items))
		c.appendLocked(page.Items)
		c.cursor = page.Next
		c.exhausted = page.Done
		c.current, c.playing = -1, -1
		c.state = Idle
		c.pages.Forget(loadMoreKey)
		c.counters.pagesLoaded.Add(1)
		return nil, nil
	})

	select {
	case r := <-ch:
		return r.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Append adds items not already present by id, in order, and returns how many
// were added. Pages and real-time updates may overlap; duplicates are dropped.
func (c *Controller) Append(items []*model.VideoItem) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appendLocked(items)
}

func (c *Controller) appendLocked(items []*model.VideoItem) int {
	var added int
	for _, item := range items {
		if item == nil {
			continue
		}
		if errors.Is(item.Validate(), model.ErrMissingID) {
			c.logger.Warn("skipping feed item without id", "url", item.URL)
			continue
		}
		if _, ok := c.index[item.ID]; ok {
			continue
		}
		c.index[item.ID] = len(c.items)
		c.items = append(c.items, item)
		added++
	}
	return added
}

func (c *Controller) fetch(cursor source.Cursor) (source.Page, error) {
	ctx, cancel := c.ctx, context.CancelFunc(func() {})
	if timeout := c.cfg.Pagination.Timeout; timeout > 0 {
		ctx, cancel = context.WithTimeout(c.ctx, timeout)
	}
	defer cancel()

	page, err := c.source.Page(ctx, cursor, c.cfg.Pagination.PageSize)
	if err != nil {
		c.logger.Warn("feed page fetch failed", "err", err.Error())
		return source.Page{}, err
	}
	return page, nil
}

// loadMoreAsyncLocked requests the next page in the background.
func (c *Controller) loadMoreAsyncLocked() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.LoadMore(c.ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrClosed) {
			c.logger.Warn("background page load failed", "err", err.Error())
		}
	}()
}
