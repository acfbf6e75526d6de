package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FormatConsole selects zerolog's human readable writer. Any other format
// value produces one JSON object per line.
const FormatConsole = "console"

type Options struct {
	ServiceName string
	Level       zerolog.Level
	Format      string
	// WarnStack attaches a goroutine stack to warn entries as well as errors.
	WarnStack bool
	Output    io.Writer
}

// Logger writes structured entries enriched with whatever fields the
// request context has accumulated.
type Logger struct {
	root      zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

func New(opts Options) *Logger {
	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out io.Writer = os.Stdout
	if opts.Output != nil {
		out = opts.Output
	}
	if strings.EqualFold(strings.TrimSpace(opts.Format), FormatConsole) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	zctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.ServiceName != "" {
		zctx = zctx.Str("service", opts.ServiceName)
	}
	return &Logger{root: zctx.Logger(), warnStack: opts.WarnStack}
}

// ParseLevel maps a config string to a level, falling back to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) current(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if zl, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
			return zl
		}
	}
	return l.root
}

func (l *Logger) extend(ctx context.Context, add func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	zl := l.current(ctx)
	return context.WithValue(ctx, ctxKey{}, add(zl.With()).Logger())
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) })
}

// WithFields adds every pair in fields. Keys are emitted in sorted order.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context { return c.Str("request_id", requestID) })
}

func (l *Logger) WithActorRole(ctx context.Context, role string) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context { return c.Str("actor_role", role) })
}

// WithCheckout tags entries with the checkout session and, once issued, the
// transaction reference of its current attempt.
func (l *Logger) WithCheckout(ctx context.Context, sessionID, transactionRef string) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		c = c.Str("session_id", sessionID)
		if transactionRef != "" {
			c = c.Str("transaction_ref", transactionRef)
		}
		return c
	})
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	zl := l.current(ctx)
	zl.Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	zl := l.current(ctx)
	zl.Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	zl := l.current(ctx)
	ev := zl.Warn()
	if l.warnStack {
		ev = ev.Str("stack", stack())
	}
	ev.Msg(msg)
}

// Error always carries a stack; err may be nil.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	zl := l.current(ctx)
	ev := zl.Error().Str("stack", stack())
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(msg)
}

func stack() string {
	return strings.TrimSpace(string(debug.Stack()))
}
