package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/Borislavv/go-ash-feed"
	"github.com/Borislavv/go-ash-feed/internal/shared/random"
	"github.com/Borislavv/go-ash-feed/internal/source"
	"github.com/Borislavv/go-ash-feed/metrics/prom"
	"github.com/Borislavv/go-ash-feed/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

type simulateFlags struct {
	config    string
	db        string
	steps     int
	dwell     time.Duration
	metrics   string
	synthetic bool
	mediaSize int64
	likeRate  float64
}

type simStats struct {
	signaled atomic.Int64
	received atomic.Int64
}

func newSimulateCmd(root *rootFlags) *cobra.Command {
	flags := &simulateFlags{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Scroll through a SQLite feed and report cache behavior",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, slogger, err := root.loggers(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			src, err := source.OpenSQLite(ctx, flags.db)
			if err != nil {
				return err
			}
			defer func() { _ = src.Close() }()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			metrics := prom.New(reg, "ashfeed", "assets", nil)

			var fetcher ashfeed.Fetcher
			if flags.synthetic {
				fetcher = syntheticFetcher{size: flags.mediaSize}
			}

			f, err := ashfeed.New(ctx, cfg, src, fetcher, slogger,
				ashfeed.WithDiskLogger(logger),
				ashfeed.WithCacheMetrics(metrics),
				ashfeed.WithPrefetchMetrics(metrics),
			)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			g, gctx := errgroup.WithContext(ctx)
			scrolled := make(chan struct{})
			stats := &simStats{}

			g.Go(func() error {
				receive := func(ev ashfeed.Event) {
					stats.received.Add(1)
					logger.Debug().Stringer("kind", ev.Kind).Int("index", ev.Index).Str("id", ev.Item.ID).Msg("user action")
				}
				for {
					select {
					case <-gctx.Done():
						return nil
					case <-scrolled:
						// take what is already buffered, then stop
						for {
							select {
							case ev, ok := <-f.Events():
								if !ok {
									return nil
								}
								receive(ev)
							default:
								return nil
							}
						}
					case ev, ok := <-f.Events():
						if !ok {
							return nil
						}
						receive(ev)
					}
				}
			})

			if flags.metrics != "" {
				srv := &http.Server{
					Addr:              flags.metrics,
					Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				g.Go(func() error {
					logger.Info().Str("addr", flags.metrics).Msg("serving metrics")
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("serve metrics: %w", err)
					}
					return nil
				})
				g.Go(func() error {
					select {
					case <-gctx.Done():
					case <-scrolled:
					}
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(sctx)
				})
			}

			g.Go(func() error {
				defer close(scrolled)
				return scroll(gctx, f, flags, stats, logger)
			})

			if err = g.Wait(); err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), f, stats)
		},
	}
	cmd.Flags().StringVar(&flags.config, "config", "", "YAML config path (defaults when empty)")
	cmd.Flags().StringVar(&flags.db, "db", "feed.db", "SQLite database path")
	cmd.Flags().IntVar(&flags.steps, "steps", 20, "number of scroll steps")
	cmd.Flags().DurationVar(&flags.dwell, "dwell", 50*time.Millisecond, "time spent on each item")
	cmd.Flags().StringVar(&flags.metrics, "metrics", "", "address to serve Prometheus metrics on, e.g. :9090")
	cmd.Flags().BoolVar(&flags.synthetic, "synthetic", false, "serve media from memory instead of HTTP")
	cmd.Flags().Int64Var(&flags.mediaSize, "media-size", 2<<20, "size of synthetic media in bytes")
	cmd.Flags().Float64Var(&flags.likeRate, "like-rate", 0.2, "probability of liking each viewed item")
	return cmd
}

// scroll moves forward one item per step, realizing the visible cell and
// pulling the next page when the end of the list is reached.
func scroll(ctx context.Context, f *ashfeed.Feed, flags *simulateFlags, stats *simStats, logger zerolog.Logger) error {
	if err := f.Load(ctx); err != nil {
		return err
	}
	if f.Len() == 0 {
		return errors.New("feed is empty, run seed first")
	}

	for step := 0; step < flags.steps; step++ {
		if step >= f.Len() {
			if f.Exhausted() {
				logger.Info().Int("step", step).Msg("reached the end of the feed")
				return nil
			}
			if _, err := f.LoadMore(ctx); err != nil {
				return err
			}
			if step >= f.Len() {
				continue
			}
		}

		f.ScrollBegan()
		if err := f.Realize(step, &logCell{ctx: ctx, logger: logger, index: step}); err != nil {
			logger.Warn().Err(err).Int("index", step).Msg("cell not realized")
		}
		if err := f.ScrollSettled(ctx, step); err != nil {
			return err
		}
		if step > 0 {
			f.Unrealize(step - 1)
		}
		if random.Chance(flags.likeRate) {
			if err := f.Signal(ashfeed.Like, step); err != nil {
				logger.Warn().Err(err).Int("index", step).Msg("like not delivered")
			} else {
				stats.signaled.Add(1)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(flags.dwell):
		}
	}
	return nil
}

func report(w io.Writer, f *ashfeed.Feed, stats *simStats) error {
	hits, misses, inserts, evictedItems, evictedBytes := f.Cache.CacheMetrics()
	started, completed, failed, pages, cleanups := f.Metrics()

	var diskUsed int64
	if d := f.Disk(); d != nil {
		diskUsed, _ = d.Size()
	}

	_, err := fmt.Fprintf(w,
		"items=%d pages=%d cleanups=%d\n"+
			"cache: entries=%d bytes=%d hits=%d misses=%d inserts=%d evicted=%d evicted_bytes=%d\n"+
			"prefetch: started=%d completed=%d failed=%d\n"+
			"disk: bytes=%d\n"+
			"events: signaled=%d received=%d\n",
		f.Len(), pages, cleanups,
		f.Cache.Len(), f.Cache.Mem(), hits, misses, inserts, evictedItems, evictedBytes,
		started, completed, failed,
		diskUsed,
		stats.signaled.Load(), stats.received.Load(),
	)
	return err
}

// logCell is a headless cell that loads its asset on play and logs
// playback transitions.
type logCell struct {
	ctx    context.Context
	logger zerolog.Logger
	index  int
	item   *model.VideoItem
	handle *ashfeed.Handle
}

func (c *logCell) Configure(item *model.VideoItem, h *ashfeed.Handle) {
	c.item, c.handle = item, h
	c.logger.Debug().Int("index", c.index).Str("id", item.ID).Bool("asset", h != nil).Msg("cell configured")
}

func (c *logCell) Play() {
	c.logger.Debug().Int("index", c.index).Msg("play")
	if h := c.handle; h != nil {
		go func() {
			if err := h.Load(c.ctx); err != nil {
				c.logger.Warn().Err(err).Str("url", h.URL()).Msg("asset failed to load")
			}
		}()
	}
}

func (c *logCell) Pause() {
	c.logger.Debug().Int("index", c.index).Msg("pause")
}

func (c *logCell) PrepareForReuse() {
	c.item, c.handle = nil, nil
}

// syntheticFetcher serves zero-filled media of a fixed size.
type syntheticFetcher struct {
	size int64
}

func (f syntheticFetcher) Probe(context.Context, string) (int64, error) {
	return f.size, nil
}

func (f syntheticFetcher) Range(_ context.Context, _ string, off, n int64) (io.ReadCloser, error) {
	n = max(min(n, f.size-off), 0)
	return io.NopCloser(bytes.NewReader(make([]byte, n))), nil
}
