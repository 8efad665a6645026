// Command ashfeed seeds a feed database, simulates scrolling through it and
// maintains the on-disk media cache.
package main

import (
	"context"
	"fmt"
	"github.com/Borislavv/go-ash-feed/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	logLevel string
	json     bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "ashfeed",
		Short:         "Short-video feed cache toolkit",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&flags.json, "log-json", false, "write logs as JSON instead of console output")

	cmd.AddCommand(
		newSeedCmd(flags),
		newSimulateCmd(flags),
		newPruneCmd(flags),
	)
	return cmd
}

// loggers builds the CLI logger and the slog logger handed to the library.
func (f *rootFlags) loggers(w io.Writer) (zerolog.Logger, *slog.Logger, error) {
	level, err := zerolog.ParseLevel(f.logLevel)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("parse log level %q: %w", f.logLevel, err)
	}

	var zl zerolog.Logger
	if f.json {
		zl = zerolog.New(w)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly})
	}
	zl = zl.Level(level).With().Timestamp().Logger()

	var sl slog.Level
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		sl = slog.LevelDebug
	case zerolog.WarnLevel:
		sl = slog.LevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel, zerolog.Disabled:
		sl = slog.LevelError
	default:
		sl = slog.LevelInfo
	}
	return zl, slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: sl})), nil
}

func loadConfig(path string) (*config.Feed, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(path)
}
