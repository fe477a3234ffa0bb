package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w with "15:04:05.00" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// phases times the consecutive steps of one command. Not safe for
// concurrent use.
type phases struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
	spans  []any
}

func newPhases(l *log.Logger) *phases {
	now := time.Now()
	return &phases{logger: l, start: now, last: now}
}

// mark closes the phase that began at the previous mark (or at creation)
// and logs its duration at debug level.
func (p *phases) mark(name string) time.Duration {
	now := time.Now()
	d := now.Sub(p.last).Round(time.Millisecond)
	p.last = now
	p.spans = append(p.spans, name, d)
	p.logger.Debug("phase done", "phase", name, "took", d)
	return d
}

// finish logs msg at info level with the total time and every marked
// phase as key/value pairs.
func (p *phases) finish(msg string) {
	kv := append([]any{"total", time.Since(p.start).Round(time.Millisecond)}, p.spans...)
	p.logger.Info(msg, kv...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() when a command runs without one (as in unit tests).
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
