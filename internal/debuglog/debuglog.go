// Package debuglog is nvg's single diagnostic sink: one Debug function
// that writes trace lines to stderr when NVG_DEBUG=1 is set, and does
// nothing otherwise. This is deliberately not a general logging
// package — spec.md §1 scopes "logging sink" out as a thin external
// collaborator; the core only ever needs this one call.
package debuglog

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once    sync.Once
	enabled bool
	zlog    zerolog.Logger
)

func initLogger() {
	enabled = os.Getenv("NVG_DEBUG") == "1"
	zlog = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

// Debug writes msg and its key/value fields to stderr, formatted the
// same way as the teacher's logger.Debug: pairs of (string key, any
// value) trailing the message. A no-op unless NVG_DEBUG=1.
func Debug(msg string, fields ...interface{}) {
	once.Do(initLogger)
	if !enabled {
		return
	}
	event := zlog.Debug()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, fields[i+1])
	}
	event.Msg(msg)
}
