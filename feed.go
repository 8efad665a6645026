package ashfeed

import (
	"context"
	"errors"
	"fmt"
	"github.com/Borislavv/go-ash-feed/config"
	"github.com/Borislavv/go-ash-feed/internal/asset"
	"github.com/Borislavv/go-ash-feed/internal/cache"
	"github.com/Borislavv/go-ash-feed/internal/disk"
	"github.com/Borislavv/go-ash-feed/internal/evictor"
	"github.com/Borislavv/go-ash-feed/internal/feed"
	"github.com/Borislavv/go-ash-feed/internal/shared/cachedtime"
	"github.com/Borislavv/go-ash-feed/internal/telemetry"
	"github.com/rs/zerolog"
	"log/slog"
	"os"
	"sync"
)

type Feed struct {
	*feed.Controller
	Cache   cache.Cacher
	Evictor evictor.Evictor
	Logs    telemetry.Logger

	disk *disk.Cache
	cls  context.CancelFunc
	once sync.Once
	err  error
}

type Option func(o *options)

type options struct {
	diskLogger   zerolog.Logger
	cacheMetrics cache.Metrics
	controller   []feed.Option
}

// WithDiskLogger sets the logger of the disk cache. Defaults to stderr at info level.
func WithDiskLogger(l zerolog.Logger) Option {
	return func(o *options) { o.diskLogger = l }
}

func WithCacheMetrics(m cache.Metrics) Option {
	return func(o *options) { o.cacheMetrics = m }
}

func WithPrefetchMetrics(m feed.PrefetchMetrics) Option {
	return func(o *options) { o.controller = append(o.controller, feed.WithPrefetchMetrics(m)) }
}

func WithClock(c feed.Clock) Option {
	return func(o *options) { o.controller = append(o.controller, feed.WithClock(c)) }
}

// New wires the disk cache, asset cache, disk evictor, scroll controller and
// telemetry from one config. A nil cfg means config.Default(); a nil fetcher
// means plain HTTP with http.DefaultClient.
func New(
	ctx context.Context,
	cfg *config.Feed,
	src Source,
	fetcher Fetcher,
	logger *slog.Logger,
	opts ...Option,
) (*Feed, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.AdjustConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if src == nil {
		return nil, ErrNilSource
	}
	if fetcher == nil {
		fetcher = asset.NewHTTPFetcher(nil)
	}

	o := &options{
		diskLogger: zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel),
	}
	for _, opt := range opts {
		opt(o)
	}

	var (
		d         *disk.Cache
		watcher   evictor.Watcher
		cacheOpts []cache.Option
	)
	if cfg.Disk.Enabled() {
		var err error
		if d, err = disk.New(cfg.Disk, o.diskLogger); err != nil {
			return nil, fmt.Errorf("open disk cache: %w", err)
		}
		watcher = d

		var warm int64
		if cfg.Prefetch.Enabled() {
			warm = max(int64(cfg.Prefetch.WarmBytes), 0)
		}
		cacheOpts = append(cacheOpts, cache.WithDisk(d, warm))
	}
	if o.cacheMetrics != nil {
		cacheOpts = append(cacheOpts, cache.WithMetrics(o.cacheMetrics))
	}

	ctx, cancel := context.WithCancel(ctx)
	cacher := cache.New(&cfg.Cache, fetcher, logger, cacheOpts...)
	eviction := evictor.New(ctx, cfg.Disk, logger, cacher, watcher)
	clock := cachedtime.New(ctx, cachedtime.DefaultResolution)
	ctrlOpts := append([]feed.Option{feed.WithClock(clock)}, o.controller...)
	controller := feed.New(ctx, cfg, cacher, src, logger, ctrlOpts...)
	logs := telemetry.New(ctx, cfg, logger, cacher, eviction, controller)

	return &Feed{
		Controller: controller,
		Cache:      cacher,
		Evictor:    eviction,
		Logs:       logs,
		disk:       d,
		cls:        cancel,
	}, nil
}

// Disk returns the on-disk media cache, or nil when it is disabled.
func (f *Feed) Disk() *disk.Cache {
	return f.disk
}

// Close stops telemetry, the controller and the evictor. Files already on disk
// are kept for the next run. Close is idempotent.
func (f *Feed) Close() error {
	f.once.Do(func() {
		f.err = errors.Join(
			f.Logs.Close(),
			f.Controller.Close(),
			f.Evictor.Close(),
		)
		f.cls()
	})
	return f.err
}
