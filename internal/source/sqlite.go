package source

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/Borislavv/go-ash-feed/model"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS videos (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	creator_id TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	likes      INTEGER NOT NULL DEFAULT 0,
	comments   INTEGER NOT NULL DEFAULT 0,
	bookmarks  INTEGER NOT NULL DEFAULT 0,
	views      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS videos_feed_order ON videos (created_at DESC, id DESC);
`

const sqliteUpsert = `
INSERT INTO videos (id, url, creator_id, created_at, likes, comments, bookmarks, views)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	url = excluded.url,
	creator_id = excluded.creator_id,
	created_at = excluded.created_at,
	likes = excluded.likes,
	comments = excluded.comments,
	bookmarks = excluded.bookmarks,
	views = excluded.views`

const sqliteSelect = `
SELECT id, url, creator_id, created_at, likes, comments, bookmarks, views
FROM videos`

// SQLite is a Source backed by a local SQLite database file.
// created_at is stored as unix nanoseconds to keep keyset comparisons exact.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err = db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Upsert writes items in a single transaction.
func (s *SQLite) Upsert(ctx context.Context, items ...*model.VideoItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		c := item.Counters().Snapshot()
		if _, err = stmt.ExecContext(ctx,
			item.ID, item.URL, item.CreatorID, item.CreatedAt.UnixNano(),
			c.Likes, c.Comments, c.Bookmarks, c.Views,
		); err != nil {
			return fmt.Errorf("upsert video %s: %w", item.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos").Scan(&n); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}

func (s *SQLite) Page(ctx context.Context, cursor Cursor, limit int) (Page, error) {
	if limit <= 0 {
		return Page{}, ErrInvalidLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if cursor.IsZero() {
		rows, err = s.db.QueryContext(ctx, sqliteSelect+`
ORDER BY created_at DESC, id DESC
LIMIT ?`, limit)
	} else {
		ts := cursor.CreatedAt.UnixNano()
		rows, err = s.db.QueryContext(ctx, sqliteSelect+`
WHERE created_at < ? OR (created_at = ? AND id < ?)
ORDER BY created_at DESC, id DESC
LIMIT ?`, ts, ts, cursor.ID, limit)
	}
	if err != nil {
		return Page{}, fmt.Errorf("query videos page: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]*model.VideoItem, 0, limit)
	for rows.Next() {
		var (
			id, url, creator string
			createdAt        int64
			c                model.CountersSnapshot
		)
		if err = rows.Scan(&id, &url, &creator, &createdAt, &c.Likes, &c.Comments, &c.Bookmarks, &c.Views); err != nil {
			return Page{}, fmt.Errorf("scan video row: %w", err)
		}
		items = append(items, model.NewVideoItem(id, url, creator, time.Unix(0, createdAt).UTC(), c))
	}
	if err = rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate videos page: %w", err)
	}
	return newPage(items, cursor, limit), nil
}
