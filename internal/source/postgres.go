package source

import (
	"context"
	"fmt"
	"github.com/Borislavv/go-ash-feed/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"time"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS videos (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	creator_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	likes      BIGINT NOT NULL DEFAULT 0,
	comments   BIGINT NOT NULL DEFAULT 0,
	bookmarks  BIGINT NOT NULL DEFAULT 0,
	views      BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS videos_feed_order ON videos (created_at DESC, id DESC);
`

const postgresUpsert = `
INSERT INTO videos (id, url, creator_id, created_at, likes, comments, bookmarks, views)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	url = EXCLUDED.url,
	creator_id = EXCLUDED.creator_id,
	created_at = EXCLUDED.created_at,
	likes = EXCLUDED.likes,
	comments = EXCLUDED.comments,
	bookmarks = EXCLUDED.bookmarks,
	views = EXCLUDED.views`

const postgresPage = `
SELECT id, url, creator_id, created_at, likes, comments, bookmarks, views
FROM videos
WHERE $1::timestamptz IS NULL OR (created_at, id) < ($1::timestamptz, $2::text)
ORDER BY created_at DESC, id DESC
LIMIT $3`

// Postgres is a Source backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// ConnectPostgres opens a pool for dsn and migrates the videos table.
func ConnectPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p := NewPostgres(pool)
	if err = p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Close() { p.pool.Close() }

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

// Upsert writes items in one batch.
func (p *Postgres) Upsert(ctx context.Context, items ...*model.VideoItem) error {
	batch := &pgx.Batch{}
	for _, item := range items {
		c := item.Counters().Snapshot()
		batch.Queue(postgresUpsert,
			item.ID, item.URL, item.CreatorID, item.CreatedAt.UTC(),
			c.Likes, c.Comments, c.Bookmarks, c.Views,
		)
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert videos: %w", err)
	}
	return nil
}

func (p *Postgres) Page(ctx context.Context, cursor Cursor, limit int) (Page, error) {
	if limit <= 0 {
		return Page{}, ErrInvalidLimit
	}

	var after *time.Time
	if !cursor.IsZero() {
		ts := cursor.CreatedAt.UTC()
		after = &ts
	}

	rows, err := p.pool.Query(ctx, postgresPage, after, cursor.ID, limit)
	if err != nil {
		return Page{}, fmt.Errorf("query videos page: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.VideoItem, error) {
		var (
			id, url, creator string
			createdAt        time.Time
			c                model.CountersSnapshot
		)
		if err := row.Scan(&id, &url, &creator, &createdAt, &c.Likes, &c.Comments, &c.Bookmarks, &c.Views); err != nil {
			return nil, err
		}
		return model.NewVideoItem(id, url, creator, createdAt.UTC(), c), nil
	})
	if err != nil {
		return Page{}, fmt.Errorf("scan videos page: %w", err)
	}
	return newPage(items, cursor, limit), nil
}
