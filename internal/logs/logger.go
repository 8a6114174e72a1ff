// Package logs builds the process logger. Every process spawned by a rebase
// logs to stderr and, inside a repository, appends JSON records to a shared
// file so one rebase can be followed across processes by its session id.
package logs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// EnvLevel selects the terminal log level (debug, info, warn, error).
const EnvLevel = "STEPWISE_LOG"

var level = new(slog.LevelVar)

func init() {
	level.Set(slog.LevelWarn)
	if v := os.Getenv(EnvLevel); v != "" {
		SetLevel(v)
	}
}

// SetLevel parses name and applies it to the terminal handler. Unknown names
// are ignored.
func SetLevel(name string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(name))); err == nil {
		level.Set(l)
	}
}

// Options configures New.
type Options struct {
	Writer  io.Writer // terminal output, defaults to os.Stderr
	FileDir string    // directory of stepwise.log; empty disables the file
	// Session returns the id of the running rebase. It is called for every
	// record because the first pass of a rebase creates the id after the
	// logger exists.
	Session func() string
}

// Logger is a slog logger plus the file it may hold open.
type Logger struct {
	*slog.Logger
	file *os.File
}

// New returns a logger fanned out to the terminal and the log file.
func New(opts Options) *Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
	}

	var file *os.File
	if opts.FileDir != "" {
		if err := os.MkdirAll(opts.FileDir, 0755); err == nil {
			f, err := os.OpenFile(filepath.Join(opts.FileDir, "stepwise.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err == nil {
				file = f
				handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
			}
		}
	}

	logger := slog.New(&Handler{Handler: slogmulti.Fanout(handlers...), session: opts.Session}).
		With("pid", os.Getpid())
	return &Logger{Logger: logger, file: file}
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

type actionKey struct{}

// WithAction tags records logged with ctx by the action being run.
func WithAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, actionKey{}, action)
}

// Handler adds the session and context-scoped attributes to records.
type Handler struct {
	slog.Handler
	session func() string
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if h.session != nil {
		if id := h.session(); id != "" {
			record.Add("session", id)
		}
	}
	if v, ok := ctx.Value(actionKey{}).(string); ok {
		record.Add("action", v)
	}
	return h.Handler.Handle(ctx, record)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs), session: h.session}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name), session: h.session}
}
