// Package source provides paginated streams of feed items, newest first.
package source

import (
	"context"
	"errors"
	"github.com/Borislavv/go-ash-feed/model"
	"time"
)

var ErrInvalidLimit = errors.New("page limit must be positive")

// Cursor points at the last item of the previous page. The zero Cursor starts
// from the newest item.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

func (c Cursor) IsZero() bool { return c.ID == "" && c.CreatedAt.IsZero() }

// CursorOf returns the cursor positioned after item.
func CursorOf(item *model.VideoItem) Cursor {
	return Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
}

// after reports whether an item with the given key sorts after c
// in creation time descending, id descending order.
func (c Cursor) after(createdAt time.Time, id string) bool {
	if c.IsZero() {
		return true
	}
	if createdAt.Equal(c.CreatedAt) {
		return id < c.ID
	}
	return createdAt.Before(c.CreatedAt)
}

type Page struct {
	Items []*model.VideoItem
	// Next is the cursor for the following page.
	Next Cursor
	// Done is set when the source has no items past this page.
	Done bool
}

// Source is an ordered, paginated stream of feed items: creation time
// descending, id descending on ties.
type Source interface {
	Page(ctx context.Context, cursor Cursor, limit int) (Page, error)
}

func newPage(items []*model.VideoItem, cursor Cursor, limit int) Page {
	p := Page{Items: items, Next: cursor, Done: len(items) < limit}
	if len(items) > 0 {
		p.Next = CursorOf(items[len(items)-1])
	}
	return p
}
