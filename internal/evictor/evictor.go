package evictor

import (
	"context"
	"errors"
	"github.com/Borislavv/go-ash-feed/config"
	"log/slog"
	"sync"
	"time"
)

const defaultPruneInterval = 30 * time.Second

var ErrEvictorNotResponded = errors.New("evictor not responded")

type Evictor interface {
	ForceCall(timeout time.Duration) error
	Metrics() (scans, hits, evictedItems, evictedBytes, errs int64)
	Close() error
}

// Pruner trims the disk cache down to its ceiling.
type Pruner interface {
	PruneDiskCache() (freed, removed int64, err error)
}

// Watcher reports files published into the disk cache.
type Watcher interface {
	Watch(ctx context.Context, fn func(name string)) error
}

// EvictionWorker prunes the disk cache periodically and, when a watcher is
// given, shortly after new files land in it.
type EvictionWorker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.DiskCfg
	logger   *slog.Logger
	pruner   Pruner
	counters *pruneCounters
	invokeCh chan struct{}
	notifyCh chan struct{}
	done     chan struct{}
}

// New starts the worker. A nil watcher or cfg.Watch == false leaves only the ticker.
func New(
	ctx context.Context,
	cfg *config.DiskCfg,
	logger *slog.Logger,
	pruner Pruner,
	watcher Watcher,
) Evictor {
	if !cfg.Enabled() {
		return &NoOpEvictor{}
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &EvictionWorker{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		pruner:   pruner,
		counters: &pruneCounters{},
		invokeCh: make(chan struct{}),
		notifyCh: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	if cfg.Watch && watcher != nil {
		if err := watcher.Watch(ctx, w.notify); err != nil {
			logger.Warn("disk watcher is unavailable, falling back to interval pruning", "err", err.Error())
		}
	}

	return w.run()
}

func (w *EvictionWorker) ForceCall(timeout time.Duration) error {
	after := time.NewTimer(timeout)
	defer after.Stop()

	select {
	case <-w.ctx.Done():
	case w.invokeCh <- struct{}{}:
	case <-after.C:
		return ErrEvictorNotResponded
	}
	return nil
}

func (w *EvictionWorker) Metrics() (scans, hits, evictedItems, evictedBytes, errs int64) {
	return w.counters.snapshot()
}

// Close stops the worker and waits for its goroutines to exit.
func (w *EvictionWorker) Close() error {
	w.cancel()
	<-w.done
	return nil
}

func (w *EvictionWorker) run() *EvictionWorker {
	w.logger.Info("evictor is running", "interval", w.cfg.PruneInterval.String(), "limit", w.cfg.MaxBytes.String(), "watch", w.cfg.Watch)

	go func() {
		defer close(w.done)
		defer w.logger.Info("evictor is stopped")
		var wg sync.WaitGroup
		wg.Go(w.consumer)
		wg.Go(w.provider)
		wg.Wait()
	}()

	return w
}

// notify coalesces watcher events into at most one pending prune.
func (w *EvictionWorker) notify(string) {
	select {
	case w.notifyCh <- struct{}{}:
	default:
	}
}

// provider - wakes the consumer on every tick and on coalesced watcher events.
func (w *EvictionWorker) provider() {
	var interval = w.cfg.PruneInterval
	if interval <= 0 {
		interval = defaultPruneInterval
	}

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-tick.C:
		case <-w.notifyCh:
		}

		select {
		case <-w.ctx.Done():
			return
		case w.invokeCh <- struct{}{}:
		}
	}
}

// consumer - prunes the disk cache down to its ceiling, oldest files first.
func (w *EvictionWorker) consumer() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.invokeCh:
			freed, removed, err := w.pruner.PruneDiskCache()
			w.counters.record(freed, removed, err)
			if err != nil {
				w.logger.Error("disk prune failed", "removed", removed, "err", err.Error())
			}
		}
	}
}
