// Package slimlog is the structured logger shared by the server,
// session responder, and instruction engine. It wraps log/slog rather
// than the basic log package, used consistently instead of bare
// log.Print* calls throughout the server.
package slimlog

import (
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// New returns a logger writing to w at Info level, or Debug level when
// verbose is true — the verbose flag raises log verbosity across
// every logger derived from it. When w is a terminal, logs render as
// human-readable text; otherwise (a file, a pipe, a CI log collector)
// they render as JSON so downstream tooling can parse them.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// Default is New(os.Stderr, false); callers that need verbose logging
// build their own logger with New instead of mutating this one.
var Default = New(os.Stderr, false)

// ByteSize renders n bytes the way a verbose frame-read/write log
// entry wants to see it: "1.2 kB" rather than a bare integer, using
// a humanize dependency.
func ByteSize(n int) string {
	return humanize.Bytes(uint64(n))
}
