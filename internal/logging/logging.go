// Package logging builds the zerolog loggers used by the CLI and the world.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level string
	// JSON disables the console formatter.
	JSON bool
	// File, when set, also receives every entry without colors.
	File string
}

// ParseLevel maps a level name onto a zerolog level; unknown names fall back
// to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "DISABLED", "OFF":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger writing to out. The returned closer releases the log
// file, if any, and is never nil.
func New(out io.Writer, opts Options) (zerolog.Logger, io.Closer, error) {
	var closer io.Closer = nopCloser{}

	w := out
	if !opts.JSON {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), closer, err
		}
		closer = f
		var fw io.Writer = f
		if !opts.JSON {
			fw = zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339, NoColor: true}
		}
		w = zerolog.MultiLevelWriter(w, fw)
	}

	log := zerolog.New(w).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
