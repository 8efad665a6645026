package main

import (
	"errors"
	"fmt"
	"github.com/Borislavv/go-ash-feed/internal/disk"
	"github.com/spf13/cobra"
)

func newPruneCmd(root *rootFlags) *cobra.Command {
	var (
		cfgPath  string
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Trim the on-disk media cache down to its configured ceiling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, _, err := root.loggers(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}

			d, err := disk.New(cfg.Disk, logger)
			if err != nil {
				if errors.Is(err, disk.ErrDiskNotEnabled) {
					return errors.New("disk cache is disabled in config, nothing to prune")
				}
				return err
			}

			if clearAll {
				removed, err := d.Clear()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "cleared %s: removed=%d\n", d.Dir(), removed)
				return err
			}

			freed, removed, err := d.Prune()
			if err != nil {
				return err
			}
			used, err := d.Size()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "pruned %s: removed=%d freed=%d used=%d limit=%d\n",
				d.Dir(), removed, freed, used, d.Limit())
			return err
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "YAML config path (defaults when empty)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "remove every cached media file instead of pruning")
	return cmd
}
