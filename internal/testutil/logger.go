package testutil

import (
	"io"
	"log/slog"
	"os"
)

// Logger returns a JSON logger for tests. Set ASHFEED_TEST_LOGS=1 to see output.
func Logger() *slog.Logger {
	var w io.Writer = io.Discard
	if os.Getenv("ASHFEED_TEST_LOGS") != "" {
		w = os.Stdout
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(h).With(
		slog.String("service", "ashFeed"),
		slog.String("env", "test"),
	)
}
