package evictor

import (
	"context"
	"github.com/Borislavv/go-ash-feed/config"
	"github.com/Borislavv/go-ash-feed/internal/testutil"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

// TestNew_DisabledDiskIsNoOp checks that a missing or dirless disk section
// yields a worker that does nothing.
func TestNew_DisabledDiskIsNoOp(t *testing.T) {
	for name, cfg := range map[string]*config.DiskCfg{
		"nil":    nil,
		"no dir": {MaxBytes: config.MB},
	} {
		t.Run(name, func(t *testing.T) {
			p := &countingPruner{}
			ev := New(context.Background(), cfg, testutil.Logger(), p, nil)
			require.IsType(t, &NoOpEvictor{}, ev)

			require.NoError(t, ev.ForceCall(time.Millisecond))
			scans, hits, items, bytes, errs := ev.Metrics()
			require.Zero(t, scans+hits+items+bytes+errs)
			require.NoError(t, ev.Close())
			require.Zero(t, p.calls.Load())
		})
	}
}
