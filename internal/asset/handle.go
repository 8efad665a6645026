// Package asset implements lazy media handles that resolve in the background.
package asset

import (
	"context"
	"errors"
	"fmt"
	"github.com/Borislavv/go-ash-feed/internal/disk"
	"github.com/Borislavv/go-ash-feed/model"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

var ErrHandleClosed = errors.New("asset handle is closed")

type Status int32

const (
	Pending Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Fetcher resolves media metadata and byte ranges for a URL.
type Fetcher interface {
	// Probe returns the content length of url.
	Probe(ctx context.Context, url string) (int64, error)
	// Range streams n bytes of url starting at off. n <= 0 reads to the end.
	Range(ctx context.Context, url string, off, n int64) (io.ReadCloser, error)
}

type Option func(h *Handle)

// WithDisk warms the first warmBytes of the media into d on Load.
func WithDisk(d *disk.Cache, warmBytes int64) Option {
	return func(h *Handle) {
		h.disk = d
		h.warmBytes = warmBytes
	}
}

// WithDefaultCost sets the cost reported until the handle resolves.
func WithDefaultCost(cost int64) Option {
	return func(h *Handle) { h.defaultCost = cost }
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handle) { h.logger = logger }
}

// Handle is a lazy reference to a remote media asset. Creating one does no I/O.
// Load resolves it exactly once to Ready or Failed; Done is closed afterwards.
type Handle struct {
	url         string
	key         model.Key
	fetcher     Fetcher
	disk        *disk.Cache
	warmBytes   int64
	defaultCost int64
	logger      *slog.Logger

	once   sync.Once
	done   chan struct{}
	status atomic.Int32
	size   atomic.Int64
	warmed atomic.Int64

	mu        sync.Mutex
	err       error
	closed    bool
	cancel    context.CancelFunc
	callbacks []func(h *Handle)
}

func New(url string, fetcher Fetcher, opts ...Option) *Handle {
	h := &Handle{
		url:     url,
		key:     model.NewKey(url),
		fetcher: fetcher,
		logger:  slog.Default(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handle) URL() string           { return h.url }
func (h *Handle) Key() model.Key        { return h.key }
func (h *Handle) Done() <-chan struct{} { return h.done }
func (h *Handle) Status() Status        { return Status(h.status.Load()) }

// Size is the probed content length, zero until the handle is Ready.
func (h *Handle) Size() int64 { return h.size.Load() }

// Warmed is the number of leading bytes available on disk.
func (h *Handle) Warmed() int64 { return h.warmed.Load() }

// Err returns the failure reason once the handle is Failed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Cost is the byte weight of the handle in memory accounting.
func (h *Handle) Cost() int64 {
	if h.Status() == Ready {
		if size := h.size.Load(); size > 0 {
			return size
		}
	}
	return h.defaultCost
}

// OnResolve registers fn to run once the handle resolves. If it already has,
// fn runs immediately on the calling goroutine.
func (h *Handle) OnResolve(fn func(h *Handle)) {
	h.mu.Lock()
	if h.Status() == Pending {
		h.callbacks = append(h.callbacks, fn)
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	fn(h)
}

// Load resolves the handle. The first call starts the load and later calls
// wait for the same result. ctx of the first call bounds the load itself.
func (h *Handle) Load(ctx context.Context) error {
	h.once.Do(func() {
		lctx, cancel := context.WithCancel(ctx)

		h.mu.Lock()
		closed := h.closed
		h.cancel = cancel
		h.mu.Unlock()

		if closed {
			cancel()
			h.resolve(ErrHandleClosed)
			return
		}
		go h.load(lctx, cancel)
	})

	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) load(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	size, err := h.fetcher.Probe(ctx, h.url)
	if err != nil {
		h.resolve(fmt.Errorf("probe %s: %w", h.url, err))
		return
	}
	h.size.Store(size)

	if h.disk != nil && h.warmBytes > 0 {
		if err = h.warm(ctx, size); err != nil {
			// Open falls back to the fetcher without a warmed prefix.
			h.logger.Warn("failed to warm media prefix", "url", h.url, "err", err.Error())
		}
	}

	h.resolve(nil)
}

func (h *Handle) warm(ctx context.Context, size int64) error {
	want := h.warmBytes
	if size > 0 {
		want = min(want, size)
	}
	if have, ok := h.disk.Stat(h.key); ok && have >= want {
		h.warmed.Store(have)
		return nil
	}

	rc, err := h.fetcher.Range(ctx, h.url, 0, want)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	n, err := h.disk.Write(h.key, io.LimitReader(rc, want))
	if err != nil {
		return err
	}
	h.warmed.Store(n)
	return nil
}

func (h *Handle) resolve(err error) {
	h.mu.Lock()
	h.err = err
	if err != nil {
		h.status.Store(int32(Failed))
	} else {
		h.status.Store(int32(Ready))
	}
	callbacks := h.callbacks
	h.callbacks = nil
	h.mu.Unlock()

	close(h.done)
	for _, fn := range callbacks {
		fn(h)
	}
}

// Open streams n bytes from off. The warmed prefix on disk is used when it
// covers the requested range, otherwise the fetcher is asked for it.
func (h *Handle) Open(ctx context.Context, off, n int64) (io.ReadCloser, error) {
	if h.disk != nil && n > 0 && off+n <= h.warmed.Load() {
		if f, err := h.disk.Open(h.key); err == nil {
			return struct {
				io.Reader
				io.Closer
			}{io.NewSectionReader(f, off, n), f}, nil
		}
	}
	return h.fetcher.Range(ctx, h.url, off, n)
}

// Close cancels an in-flight load. A handle closed before Load fails with
// ErrHandleClosed.
func (h *Handle) Close() error {
	h.mu.Lock()
	h.closed = true
	cancel := h.cancel
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}
