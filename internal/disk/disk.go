// Package disk keeps warmed media prefixes in a flat directory bounded by size.
package disk

import (
	"context"
	"errors"
	"fmt"
	"github.com/Borislavv/go-ash-feed/config"
	"github.com/Borislavv/go-ash-feed/model"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	fileExt = ".media"
	tmpExt  = ".tmp"
)

var ErrDiskNotEnabled = errors.New("disk cache is not enabled")

// Cache is a directory of published media files named by key.
// Files are written to a temporary name and renamed into place, so a reader
// never sees a partial file and a published file is never rewritten.
type Cache struct {
	dir    string
	limit  int64
	logger zerolog.Logger
	// mu serializes Prune and Clear. Writes and reads never take it.
	mu sync.Mutex
}

func New(cfg *config.DiskCfg, logger zerolog.Logger) (*Cache, error) {
	if !cfg.Enabled() {
		return nil, ErrDiskNotEnabled
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create disk cache dir %s: %w", cfg.Dir, err)
	}
	return &Cache{
		dir:    cfg.Dir,
		limit:  cfg.MaxBytes.Int64(),
		logger: logger.With().Str("component", "disk").Str("dir", cfg.Dir).Logger(),
	}, nil
}

func (c *Cache) Dir() string  { return c.dir }
func (c *Cache) Limit() int64 { return c.limit }

func (c *Cache) Path(key model.Key) string {
	return filepath.Join(c.dir, key.Hex()+fileExt)
}

// Write stores r under key and returns the number of bytes published.
func (c *Cache) Write(key model.Key, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(c.dir, key.Hex()+".*"+tmpExt)
	if err != nil {
		return 0, fmt.Errorf("create tmp file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("write %s: %w", tmpName, err)
	}

	if err = os.Rename(tmpName, c.Path(key)); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("publish %s: %w", key.Hex(), err)
	}

	c.logger.Debug().Str("key", key.Hex()).Int64("bytes", n).Msg("media written")
	return n, nil
}

// Open returns the published file for key. The caller closes it.
func (c *Cache) Open(key model.Key) (*os.File, error) {
	return os.Open(c.Path(key))
}

// Stat reports the size of the published file for key.
func (c *Cache) Stat(key model.Key) (size int64, ok bool) {
	fi, err := os.Stat(c.Path(key))
	if err != nil {
		return 0, false
	}
	return fi.Size(), true
}

func (c *Cache) Has(key model.Key) bool {
	_, ok := c.Stat(key)
	return ok
}

type file struct {
	name  string
	size  int64
	mtime time.Time
}

// list returns published files sorted oldest first, ties broken by name.
// Temporary files and entries that vanish while listing are skipped.
func (c *Cache) list() ([]file, int64, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, 0, fmt.Errorf("read disk cache dir: %w", err)
	}

	var (
		files = make([]file, 0, len(entries))
		total int64
	)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, 0, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, file{name: e.Name(), size: info.Size(), mtime: info.ModTime()})
		total += info.Size()
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].mtime.Equal(files[j].mtime) {
			return files[i].name < files[j].name
		}
		return files[i].mtime.Before(files[j].mtime)
	})
	return files, total, nil
}

// Size returns the total size of published files.
func (c *Cache) Size() (int64, error) {
	_, total, err := c.list()
	return total, err
}

// Prune deletes the oldest files until the directory fits under the limit.
// It stops at the first file it fails to delete so a newer file is never
// removed while an older one is kept.
func (c *Cache) Prune() (freed, removed int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	files, total, err := c.list()
	if err != nil {
		return 0, 0, err
	}

	for _, f := range files {
		if total <= c.limit {
			break
		}
		switch rmErr := os.Remove(filepath.Join(c.dir, f.name)); {
		case rmErr == nil:
			freed += f.size
			removed++
		case !errors.Is(rmErr, fs.ErrNotExist):
			err = fmt.Errorf("remove %s: %w", f.name, rmErr)
		}
		if err != nil {
			break
		}
		total -= f.size
	}

	if removed > 0 || err != nil {
		ev := c.logger.Info()
		if err != nil {
			ev = c.logger.Error().Err(err)
		}
		ev.Int64("removed", removed).Int64("freed", freed).Int64("size", total).Msg("disk cache pruned")
	}
	return freed, removed, err
}

// Clear removes every cache file, temporary ones included. The directory stays.
func (c *Cache) Clear() (removed int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("read disk cache dir: %w", err)
	}

	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, fileExt) || strings.HasSuffix(name, tmpExt)) {
			continue
		}
		if rmErr := os.Remove(filepath.Join(c.dir, name)); rmErr != nil {
			if !errors.Is(rmErr, fs.ErrNotExist) {
				errs = append(errs, rmErr)
			}
			continue
		}
		removed++
	}

	c.logger.Info().Int64("removed", removed).Msg("disk cache cleared")
	return removed, errors.Join(errs...)
}

// Watch calls fn for every file published into the directory until ctx is done.
func (c *Cache) Watch(ctx context.Context, fn func(name string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err = w.Add(c.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}

	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) && strings.HasSuffix(ev.Name, fileExt) {
					fn(filepath.Base(ev.Name))
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				c.logger.Warn().Err(werr).Msg("disk watcher error")
			}
		}
	}()

	return nil
}
