package disk

import (
	"bytes"
	"context"
	"github.com/Borislavv/go-ash-feed/config"
	"github.com/Borislavv/go-ash-feed/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func newTestCache(t *testing.T, limit config.Bytes) *Cache {
	t.Helper()
	c, err := New(&config.DiskCfg{Dir: t.TempDir(), MaxBytes: limit}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

// writeAged publishes size bytes under url and backdates the file by age.
func writeAged(t *testing.T, c *Cache, url string, size int, age time.Duration) model.Key {
	t.Helper()
	key := model.NewKey(url)
	_, err := c.Write(key, bytes.NewReader(make([]byte, size)))
	require.NoError(t, err)
	ts := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(c.Path(key), ts, ts))
	return key
}

// TestNew_Disabled refuses a section without a directory.
func TestNew_Disabled(t *testing.T) {
	_, err := New(nil, zerolog.Nop())
	require.ErrorIs(t, err, ErrDiskNotEnabled)

	_, err = New(&config.DiskCfg{}, zerolog.Nop())
	require.ErrorIs(t, err, ErrDiskNotEnabled)
}

// TestWrite_OpenRoundTrip publishes a file that can be read back.
func TestWrite_OpenRoundTrip(t *testing.T) {
	c := newTestCache(t, 1<<20)
	key := model.NewKey("https://cdn/v/1.mp4")

	n, err := c.Write(key, bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
	require.True(t, c.Has(key))

	f, err := c.Open(key)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary file must be left behind")
}

// TestPrune_OldestFirstUnderCeiling keeps the newest files within the limit.
func TestPrune_OldestFirstUnderCeiling(t *testing.T) {
	c := newTestCache(t, 300)

	oldest := writeAged(t, c, "a", 100, 5*time.Hour)
	older := writeAged(t, c, "b", 100, 4*time.Hour)
	mid := writeAged(t, c, "c", 100, 3*time.Hour)
	newer := writeAged(t, c, "d", 100, 2*time.Hour)
	newest := writeAged(t, c, "e", 100, time.Hour)

	freed, removed, err := c.Prune()
	require.NoError(t, err)
	require.Equal(t, int64(200), freed)
	require.Equal(t, int64(2), removed)

	require.False(t, c.Has(oldest))
	require.False(t, c.Has(older))
	require.True(t, c.Has(mid))
	require.True(t, c.Has(newer))
	require.True(t, c.Has(newest))

	size, err := c.Size()
	require.NoError(t, err)
	require.LessOrEqual(t, size, c.Limit())
}

// TestPrune_NeverDeletesNewerThanKept checks the oldest-first property on uneven sizes.
func TestPrune_NeverDeletesNewerThanKept(t *testing.T) {
	c := newTestCache(t, 1000)

	keys := make([]model.Key, 0, 20)
	for i := 0; i < 20; i++ {
		size := 50 + (i*37)%200
		keys = append(keys, writeAged(t, c, "k"+strconv.Itoa(i), size, time.Duration(20-i)*time.Minute))
	}

	_, _, err := c.Prune()
	require.NoError(t, err)

	size, err := c.Size()
	require.NoError(t, err)
	require.LessOrEqual(t, size, c.Limit())

	// keys are ordered oldest to newest: once a kept file is seen, every newer one is kept.
	seenKept := false
	for _, k := range keys {
		if c.Has(k) {
			seenKept = true
		} else {
			require.False(t, seenKept, "a newer file was deleted while an older one was kept")
		}
	}
}

// TestPrune_SameMtimeTieBreak orders by name when mtimes are equal.
func TestPrune_SameMtimeTieBreak(t *testing.T) {
	c := newTestCache(t, 100)
	ts := time.Now().Add(-time.Hour)

	a, b := model.NewKey("x"), model.NewKey("y")
	for _, k := range []model.Key{a, b} {
		_, err := c.Write(k, bytes.NewReader(make([]byte, 100)))
		require.NoError(t, err)
		require.NoError(t, os.Chtimes(c.Path(k), ts, ts))
	}

	_, removed, err := c.Prune()
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	first, second := a, b
	if b.Hex() < a.Hex() {
		first, second = b, a
	}
	require.False(t, c.Has(first))
	require.True(t, c.Has(second))
}

// TestPrune_SkipsTmpFiles leaves in-flight writes alone and ignores them in totals.
func TestPrune_SkipsTmpFiles(t *testing.T) {
	c := newTestCache(t, 10)
	tmp := filepath.Join(c.Dir(), "inflight.123.tmp")
	require.NoError(t, os.WriteFile(tmp, make([]byte, 1000), 0o644))

	_, removed, err := c.Prune()
	require.NoError(t, err)
	require.Zero(t, removed)
	require.FileExists(t, tmp)
}

// TestPrune_Empty is a no-op on an empty directory.
func TestPrune_Empty(t *testing.T) {
	c := newTestCache(t, 10)
	freed, removed, err := c.Prune()
	require.NoError(t, err)
	require.Zero(t, freed)
	require.Zero(t, removed)
}

// TestClear_RemovesEverything and is idempotent.
func TestClear_RemovesEverything(t *testing.T) {
	c := newTestCache(t, 1<<20)
	writeAged(t, c, "a", 10, time.Minute)
	writeAged(t, c, "b", 10, time.Minute)
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "c.1.tmp"), []byte("x"), 0o644))

	removed, err := c.Clear()
	require.NoError(t, err)
	require.Equal(t, int64(3), removed)

	removed, err = c.Clear()
	require.NoError(t, err)
	require.Zero(t, removed)

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	require.Empty(t, entries)
	require.DirExists(t, c.Dir())
}

// TestWatch_NotifiesOnPublish reports renamed-in files but not temporaries.
func TestWatch_NotifiesOnPublish(t *testing.T) {
	c := newTestCache(t, 1<<20)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	names := make(chan string, 16)
	require.NoError(t, c.Watch(ctx, func(name string) { names <- name }))

	key := model.NewKey("watched")
	_, err := c.Write(key, bytes.NewReader([]byte("data")))
	require.NoError(t, err)

	select {
	case name := <-names:
		require.Equal(t, key.Hex()+fileExt, name)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the published file")
	}
}
