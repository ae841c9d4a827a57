//go:build wasip1

package log

import (
	"log/slog"
	"os"
)

// The guest has no other log sink than WASI stderr, which the host reads
// line by line. Filtering is left to the host.
func init() {
	slog.SetDefault(slog.New(NewHandler(WithWriter(os.Stderr), WithLevel(slog.LevelDebug))))
}
