// Package executor is the root of the transaction execution module. It only
// carries the process-wide logger and the shared list of prometheus
// collectors (metrics.go); the substance of the executor lives under core/.
package executor

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	With().Caller().Logger().
	Level(zerolog.InfoLevel)
