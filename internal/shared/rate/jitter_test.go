package rate

import (
	"context"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestNewJitter_Bounds checks the limit floor and the burst size.
func TestNewJitter_Bounds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, tc := range []struct {
		limit, wantLimit, wantBurst int
	}{
		{0, 1, 1},
		{5, 5, 1},
		{1000, 1000, 100},
	} {
		j := NewJitter(ctx, tc.limit)
		require.Equal(t, tc.wantLimit, j.Limit())
		require.Equal(t, tc.wantBurst, j.Burst())
		require.NoError(t, j.Close())
	}
}

// TestJitter_Wait returns a token within the rate period.
func TestJitter_Wait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := NewJitter(ctx, 100)
	defer j.Close()
	wctx, wcancel := context.WithTimeout(ctx, time.Second)
	defer wcancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, j.Wait(wctx))
	}
}

// TestJitter_RateIsBounded checks that sustained waits are paced by the limit
// once the buffered burst and limiter slack are spent.
func TestJitter_RateIsBounded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := NewJitter(ctx, 100)
	defer j.Close()

	start := time.Now()
	for i := 0; i < 40; i++ {
		require.NoError(t, j.Wait(ctx))
	}
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

// TestJitter_WaitHonorsContext checks that Wait returns the caller's error.
func TestJitter_WaitHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := NewJitter(ctx, 1)
	defer j.Close()
	require.NoError(t, j.Wait(ctx))

	wctx, wcancel := context.WithCancel(ctx)
	wcancel()
	require.ErrorIs(t, j.Wait(wctx), context.Canceled)
}

// TestJitter_Stops checks that cancelling the provider context closes the channel.
func TestJitter_Stops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	j := NewJitter(ctx, 1000)
	cancel()

	require.Eventually(t, func() bool {
		return j.Wait(context.Background()) == ErrJitterStopped
	}, time.Second, time.Millisecond)
}

// TestJitter_CloseAtLowRate checks that Close does not wait out the pacing
// interval and leaves no provider goroutine behind.
func TestJitter_CloseAtLowRate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := NewJitter(ctx, 1)
	require.NoError(t, j.Wait(ctx))

	// the provider is now pacing the next token a second out
	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	require.NoError(t, j.Close())
	require.Less(t, time.Since(start), 200*time.Millisecond)
	require.ErrorIs(t, j.Wait(context.Background()), ErrJitterStopped)
	goleak.VerifyNone(t)
}
