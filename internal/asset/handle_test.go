package asset

import (
	"bytes"
	"context"
	"errors"
	"github.com/Borislavv/go-ash-feed/config"
	"github.com/Borislavv/go-ash-feed/internal/disk"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeFetcher struct {
	data   []byte
	err    error
	block  chan struct{}
	probes atomic.Int64
	ranges atomic.Int64
}

func (f *fakeFetcher) Probe(ctx context.Context, _ string) (int64, error) {
	f.probes.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.data)), nil
}

func (f *fakeFetcher) Range(_ context.Context, _ string, off, n int64) (io.ReadCloser, error) {
	f.ranges.Add(1)
	end := int64(len(f.data))
	if n > 0 {
		end = min(off+n, end)
	}
	return io.NopCloser(bytes.NewReader(f.data[off:end])), nil
}

// TestNew_IsLazy performs no I/O until Load.
func TestNew_IsLazy(t *testing.T) {
	f := &fakeFetcher{data: []byte("video")}
	h := New("https://cdn/v.mp4", f, WithDefaultCost(42))

	require.Equal(t, Pending, h.Status())
	require.Equal(t, int64(42), h.Cost())
	require.Zero(t, f.probes.Load())
}

// TestLoad_ResolvesReady and re-weighs the handle with the probed size.
func TestLoad_ResolvesReady(t *testing.T) {
	f := &fakeFetcher{data: make([]byte, 1024)}
	h := New("https://cdn/v.mp4", f, WithDefaultCost(1))

	require.NoError(t, h.Load(context.Background()))
	require.Equal(t, Ready, h.Status())
	require.Equal(t, int64(1024), h.Cost())
	require.NoError(t, h.Err())

	select {
	case <-h.Done():
	default:
		t.Fatal("done channel must be closed after resolve")
	}
}

// TestLoad_Failed reports the reason through Err.
func TestLoad_Failed(t *testing.T) {
	boom := errors.New("boom")
	h := New("https://cdn/v.mp4", &fakeFetcher{err: boom}, WithDefaultCost(7))

	require.ErrorIs(t, h.Load(context.Background()), boom)
	require.Equal(t, Failed, h.Status())
	require.ErrorIs(t, h.Err(), boom)
	require.Equal(t, int64(7), h.Cost())
}

// TestLoad_Idempotent probes once for concurrent callers.
func TestLoad_Idempotent(t *testing.T) {
	f := &fakeFetcher{data: []byte("abc"), block: make(chan struct{})}
	h := New("https://cdn/v.mp4", f)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, h.Load(context.Background()))
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(f.block)
	wg.Wait()

	require.Equal(t, int64(1), f.probes.Load())
}

// TestOnResolve fires registered callbacks once and late ones immediately.
func TestOnResolve(t *testing.T) {
	h := New("https://cdn/v.mp4", &fakeFetcher{data: []byte("abc")})

	var early atomic.Int64
	h.OnResolve(func(*Handle) { early.Add(1) })
	require.NoError(t, h.Load(context.Background()))
	require.Equal(t, int64(1), early.Load())

	late := false
	h.OnResolve(func(got *Handle) { late = got.Status() == Ready })
	require.True(t, late)
}

// TestClose_CancelsInFlightLoad fails a blocked probe.
func TestClose_CancelsInFlightLoad(t *testing.T) {
	f := &fakeFetcher{data: []byte("abc"), block: make(chan struct{})}
	h := New("https://cdn/v.mp4", f)

	errCh := make(chan error, 1)
	go func() { errCh <- h.Load(context.Background()) }()

	require.Eventually(t, func() bool { return f.probes.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, h.Close())

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, Failed, h.Status())
	case <-time.After(time.Second):
		t.Fatal("load was not cancelled by Close")
	}
}

// TestClose_BeforeLoad resolves Failed without probing.
func TestClose_BeforeLoad(t *testing.T) {
	f := &fakeFetcher{data: []byte("abc")}
	h := New("https://cdn/v.mp4", f)

	require.NoError(t, h.Close())
	require.ErrorIs(t, h.Load(context.Background()), ErrHandleClosed)
	require.Zero(t, f.probes.Load())
}

// TestLoad_WarmsDiskAndServesPrefix reads the warmed prefix from disk.
func TestLoad_WarmsDiskAndServesPrefix(t *testing.T) {
	d, err := disk.New(&config.DiskCfg{Dir: t.TempDir(), MaxBytes: 1 << 20}, zerolog.Nop())
	require.NoError(t, err)

	data := []byte("0123456789abcdef")
	f := &fakeFetcher{data: data}
	h := New("https://cdn/v.mp4", f, WithDisk(d, 8))

	require.NoError(t, h.Load(context.Background()))
	require.Equal(t, int64(8), h.Warmed())
	require.True(t, d.Has(h.Key()))
	rangesAfterWarm := f.ranges.Load()

	rc, err := h.Open(context.Background(), 2, 4)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "2345", string(got))
	require.Equal(t, rangesAfterWarm, f.ranges.Load(), "warmed range must be served from disk")

	rc, err = h.Open(context.Background(), 6, 6)
	require.NoError(t, err)
	got, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "6789ab", string(got))
	require.Equal(t, rangesAfterWarm+1, f.ranges.Load())
}
