package telemetry

import (
	"context"
	"github.com/Borislavv/go-ash-feed/config"
	"github.com/Borislavv/go-ash-feed/internal/evictor"
	"github.com/Borislavv/go-ash-feed/internal/shared/bytes"
	"log/slog"
	"time"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.Feed
	logger   *slog.Logger
	cache    CacheStats
	evictor  evictor.Evictor
	feed     FeedStats
	interval time.Duration
	done     chan struct{}
}

func New(
	ctx context.Context,
	cfg *config.Feed,
	logger *slog.Logger,
	cache CacheStats,
	evictor evictor.Evictor,
	feed FeedStats,
) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	return (&Logs{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		evictor:  evictor,
		feed:     feed,
		interval: cfg.Telemetry.LogsInterval,
		done:     make(chan struct{}),
	}).run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	<-l.done
	return nil
}

func (l *Logs) run() *Logs {
	if l.cfg.Telemetry.IsLogsEnabled && l.interval > 0 {
		s := newSampler(l.cache, l.evictor, l.feed)
		go l.loop(s, s.snapshot())
	} else {
		close(l.done)
	}
	return l
}

func (l *Logs) loop(s sampler, prev snapshot) {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	var diskLimit = "OFF"
	if l.cfg.Disk.Enabled() {
		diskLimit = bytes.FmtMem(uint64(l.cfg.Disk.MaxBytes))
	}
	memLimit := bytes.FmtMem(uint64(l.cfg.Cache.MaxBytes))

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			cur := s.snapshot()
			d := deltaSnapshot(prev, cur)
			prev = cur

			common := []any{"interval", l.interval.String()}

			l.logger.Info("asset_cache",
				append(common,
					"hits", int64(d.hits),
					"misses", int64(d.misses),
					"inserts", int64(d.inserts),
					"evicted_items", int64(d.evictedItems),
					"evicted_bytes", bytes.FmtMem(d.evictedBytes),
				)...,
			)

			if l.cfg.Disk.Enabled() {
				l.logger.Info("disk_evictor",
					append(common,
						"scans", int64(d.pruneScans),
						"hits", int64(d.pruneHits),
						"freed_items", int64(d.prunedItems),
						"freed_bytes", bytes.FmtMem(d.prunedBytes),
						"errors", int64(d.pruneErrors),
					)...,
				)
			}

			if l.cfg.Prefetch.Enabled() {
				l.logger.Info("prefetcher",
					append(common,
						"started", int64(d.prefetchStarted),
						"completed", int64(d.prefetchCompleted),
						"failed", int64(d.prefetchFailed),
					)...,
				)
			}

			l.logger.Info("feed",
				append(common,
					"pages", int64(d.pagesLoaded),
					"cleanups", int64(d.cleanups),
				)...,
			)

			l.logger.Info("storage",
				append(common,
					"size", bytes.FmtMem(uint64(max(l.cache.Mem(), 0))),
					"entries", l.cache.Len(),
					"mem_limit", memLimit,
					"disk_limit", diskLimit,
				)...,
			)
		}
	}
}
