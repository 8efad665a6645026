package source

import (
	"context"
	"github.com/Borislavv/go-ash-feed/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fixture returns n items, two per timestamp so that id ties are exercised.
func fixture(n int) []*model.VideoItem {
	items := make([]*model.VideoItem, 0, n)
	for i := 0; i < n; i++ {
		id := "v" + strconv.Itoa(100+i)
		items = append(items, model.NewVideoItem(id, "https://cdn/"+id+".mp4", "c1", base.Add(time.Duration(i/2)*time.Minute), model.CountersSnapshot{Likes: int64(i)}))
	}
	return items
}

// expectedOrder is creation time descending, id descending.
func expectedOrder(n int) []string {
	ids := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		ids = append(ids, "v"+strconv.Itoa(100+i))
	}
	return ids
}

func drain(t *testing.T, s Source, limit int) (ids []string, pages int) {
	t.Helper()
	var cursor Cursor
	for {
		p, err := s.Page(context.Background(), cursor, limit)
		require.NoError(t, err)
		pages++
		for _, item := range p.Items {
			ids = append(ids, item.ID)
		}
		if p.Done {
			return ids, pages
		}
		cursor = p.Next
		require.Less(t, pages, 1000, "pagination does not terminate")
	}
}

// TestMemory_PagesInFeedOrder walks every page once without gaps or repeats.
func TestMemory_PagesInFeedOrder(t *testing.T) {
	m := NewMemory(fixture(23)...)

	ids, pages := drain(t, m, 5)
	if diff := cmp.Diff(expectedOrder(23), ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 5, pages)
}

// TestMemory_ExactMultiple ends with an empty page.
func TestMemory_ExactMultiple(t *testing.T) {
	m := NewMemory(fixture(10)...)
	ids, pages := drain(t, m, 5)
	require.Len(t, ids, 10)
	require.Equal(t, 3, pages)
}

// TestMemory_AddReplacesByID keeps one item per id.
func TestMemory_AddReplacesByID(t *testing.T) {
	items := fixture(3)
	m := NewMemory(items...)
	m.Add(model.NewVideoItem(items[0].ID, "https://cdn/new.mp4", "c1", items[0].CreatedAt, model.CountersSnapshot{}))

	require.Equal(t, 3, m.Len())
	p, err := m.Page(context.Background(), Cursor{}, 10)
	require.NoError(t, err)
	require.Equal(t, "https://cdn/new.mp4", p.Items[2].URL)
	require.True(t, p.Done)
}

// TestMemory_InvalidLimit rejects non-positive limits.
func TestMemory_InvalidLimit(t *testing.T) {
	_, err := NewMemory().Page(context.Background(), Cursor{}, 0)
	require.ErrorIs(t, err, ErrInvalidLimit)
}

// TestSQLite_KeysetPagination pages by creation time descending with id tie-break.
func TestSQLite_KeysetPagination(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "feed.db"))
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	require.NoError(t, s.Upsert(ctx, fixture(17)...))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 17, n)

	ids, pages := drain(t, s, 4)
	if diff := cmp.Diff(expectedOrder(17), ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 5, pages)
}

// TestSQLite_UpsertRoundTrip preserves fields and updates counters.
func TestSQLite_UpsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "feed.db"))
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	created := base.Add(123456789 * time.Nanosecond)
	item := model.NewVideoItem("a", "https://cdn/a.mp4", "creator", created, model.CountersSnapshot{Likes: 1, Views: 9})
	require.NoError(t, s.Upsert(ctx, item))
	require.NoError(t, s.Upsert(ctx, model.NewVideoItem("a", "https://cdn/a.mp4", "creator", created, model.CountersSnapshot{Likes: 2, Views: 10})))

	p, err := s.Page(ctx, Cursor{}, 10)
	require.NoError(t, err)
	require.Len(t, p.Items, 1)

	got := p.Items[0]
	require.Equal(t, "creator", got.CreatorID)
	require.True(t, got.CreatedAt.Equal(created))
	require.Equal(t, model.CountersSnapshot{Likes: 2, Views: 10}, got.Counters().Snapshot())
}

// TestPostgres_KeysetPagination runs against a live database when ASHFEED_POSTGRES_DSN is set.
func TestPostgres_KeysetPagination(t *testing.T) {
	dsn := os.Getenv("ASHFEED_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ASHFEED_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	p, err := ConnectPostgres(ctx, dsn)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.pool.Exec(ctx, "TRUNCATE videos")
	require.NoError(t, err)
	require.NoError(t, p.Upsert(ctx, fixture(11)...))

	ids, _ := drain(t, p, 3)
	if diff := cmp.Diff(expectedOrder(11), ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}
