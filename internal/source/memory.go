package source

import (
	"context"
	"github.com/Borislavv/go-ash-feed/model"
	"sort"
	"sync"
)

// Memory is an in-process Source. Items may be added while it is being read.
type Memory struct {
	mu    sync.RWMutex
	items []*model.VideoItem
}

func NewMemory(items ...*model.VideoItem) *Memory {
	m := &Memory{}
	m.Add(items...)
	return m
}

// Add inserts items, replacing any existing item with the same id.
func (m *Memory) Add(items ...*model.VideoItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, in := range items {
		replaced := false
		for i, cur := range m.items {
			if cur.ID == in.ID {
				m.items[i] = in
				replaced = true
				break
			}
		}
		if !replaced {
			m.items = append(m.items, in)
		}
	}

	sort.Slice(m.items, func(i, j int) bool {
		a, b := m.items[i], m.items[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) Page(ctx context.Context, cursor Cursor, limit int) (Page, error) {
	if limit <= 0 {
		return Page{}, ErrInvalidLimit
	}
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.VideoItem, 0, limit)
	for _, item := range m.items {
		if !cursor.after(item.CreatedAt, item.ID) {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return newPage(out, cursor, limit), nil
}
