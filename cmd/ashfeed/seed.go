package main

import (
	"fmt"
	"github.com/Borislavv/go-ash-feed/internal/shared/random"
	"github.com/Borislavv/go-ash-feed/internal/source"
	"github.com/Borislavv/go-ash-feed/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"strings"
	"time"
)

const seedBatch = 500

func newSeedCmd(root *rootFlags) *cobra.Command {
	var (
		dbPath  string
		count   int
		baseURL string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill a SQLite feed database with synthetic videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, _, err := root.loggers(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}

			src, err := source.OpenSQLite(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = src.Close() }()

			now := time.Now().UTC().Truncate(time.Second)
			base := strings.TrimRight(baseURL, "/")
			batch := make([]*model.VideoItem, 0, min(count, seedBatch))
			for i := 0; i < count; i++ {
				id := uuid.NewString()
				batch = append(batch, model.NewVideoItem(
					id,
					base+"/"+id+".mp4",
					"creator-"+uuid.NewString()[:8],
					now.Add(-time.Duration(i)*time.Minute),
					model.CountersSnapshot{
						Likes:     random.Int64N(10_000),
						Comments:  random.Int64N(500),
						Bookmarks: random.Int64N(1_000),
					},
				))
				if len(batch) == cap(batch) || i == count-1 {
					if err = src.Upsert(cmd.Context(), batch...); err != nil {
						return err
					}
					batch = batch[:0]
				}
			}

			total, err := src.Count(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info().Str("db", dbPath).Int("seeded", count).Int("total", total).Msg("feed database seeded")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d items, %d total\n", count, total)
			return err
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "feed.db", "SQLite database path")
	cmd.Flags().IntVar(&count, "count", 100, "number of videos to insert")
	cmd.Flags().StringVar(&baseURL, "base-url", "https://cdn.example.com/videos", "media URL prefix")
	return cmd
}
