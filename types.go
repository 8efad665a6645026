package ashfeed

import (
	"context"
	"errors"
	"github.com/Borislavv/go-ash-feed/internal/asset"
	"github.com/Borislavv/go-ash-feed/internal/feed"
	"github.com/Borislavv/go-ash-feed/internal/source"
	"github.com/Borislavv/go-ash-feed/model"
	"net/http"
)

var ErrNilSource = errors.New("feed source is nil")

type (
	Source    = source.Source
	Cursor    = source.Cursor
	Page      = source.Page
	Fetcher   = asset.Fetcher
	Handle    = asset.Handle
	Cell      = feed.Cell
	Event     = feed.Event
	EventKind = feed.EventKind
	State     = feed.State
)

const (
	Like        = feed.Like
	Comment     = feed.Comment
	Bookmark    = feed.Bookmark
	Share       = feed.Share
	OpenProfile = feed.OpenProfile
)

func NewHTTPFetcher(client *http.Client) Fetcher {
	return asset.NewHTTPFetcher(client)
}

// NewMemorySource returns an in-memory source ordered newest first.
func NewMemorySource(items ...*model.VideoItem) *source.Memory {
	return source.NewMemory(items...)
}

// OpenSQLiteSource opens (and migrates) a feed database file.
func OpenSQLiteSource(ctx context.Context, path string) (*source.SQLite, error) {
	return source.OpenSQLite(ctx, path)
}

// ConnectPostgresSource connects to Postgres and migrates the feed table.
func ConnectPostgresSource(ctx context.Context, dsn string) (*source.Postgres, error) {
	return source.ConnectPostgres(ctx, dsn)
}
