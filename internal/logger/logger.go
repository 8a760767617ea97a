// Package logger provides structured logging for the catalog server.
//
// Production writes JSON records; every other environment gets a compact
// one-line format meant for a terminal:
//
//	15:04:05 INF [edge] request served method=GET path=/ status=200
package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	formatJSON   = "json"
	formatPretty = "pretty"
)

// componentKey is rendered as a bracketed prefix by the pretty format.
const componentKey = "component"

// Logger wraps slog.Logger with a few helpers used across the server.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Writer      io.Writer
	Format      string // json or pretty; derived from Environment when empty
	Environment string
	Level       slog.Level
	AddSource   bool
	NoColor     bool
}

// New creates a logger.
func New(cfg Config) *Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Format == "" {
		cfg.Format = formatPretty
		if cfg.Environment == "production" {
			cfg.Format = formatJSON
		}
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if src, ok := a.Value.Any().(*slog.Source); ok && a.Key == slog.SourceKey {
				src.File = filepath.Base(src.File)
			}
			return a
		},
	}

	if cfg.Format == formatJSON {
		return &Logger{Logger: slog.New(slog.NewJSONHandler(cfg.Writer, opts))}
	}
	return &Logger{Logger: slog.New(NewPrettyHandler(cfg.Writer, opts, !cfg.NoColor))}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// ParseLevel converts a string to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component tags every record with the emitting subsystem.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.With(slog.String(componentKey, name))}
}

type palette struct {
	reset, dim, bold, attrs string
	levels                  map[slog.Level]string
}

var colors = palette{
	reset: "\033[0m",
	dim:   "\033[2m",
	bold:  "\033[1m",
	attrs: "\033[36m",
	levels: map[slog.Level]string{
		slog.LevelDebug: "\033[35m",
		slog.LevelInfo:  "\033[32m",
		slog.LevelWarn:  "\033[33m",
		slog.LevelError: "\033[31m",
	},
}

var levelTags = map[slog.Level]string{
	slog.LevelDebug: "DBG",
	slog.LevelInfo:  "INF",
	slog.LevelWarn:  "WRN",
	slog.LevelError: "ERR",
}

// PrettyHandler writes one line per record. Handlers derived through
// WithAttrs and WithGroup share the writer lock, so concurrent records never
// interleave.
type PrettyHandler struct {
	opts      slog.HandlerOptions
	w         io.Writer
	mu        *sync.Mutex
	color     bool
	component string
	attrs     []slog.Attr
	group     string
}

// NewPrettyHandler creates a pretty handler. color enables ANSI escapes.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions, color bool) *PrettyHandler {
	h := &PrettyHandler{w: w, mu: &sync.Mutex{}, color: color}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled implements slog.Handler.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}
	return level >= threshold
}

// Handle implements slog.Handler.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	h.paint(&buf, colors.dim, r.Time.Format(time.TimeOnly))
	buf.WriteByte(' ')

	tag, ok := levelTags[r.Level]
	if !ok {
		tag = r.Level.String()
	}
	h.paint(&buf, colors.levels[r.Level], tag)
	buf.WriteByte(' ')

	component := h.component
	var attrs []slog.Attr
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if h.group == "" && a.Key == componentKey {
			component = a.Value.String()
			return true
		}
		attrs = append(attrs, h.qualify(a))
		return true
	})

	if component != "" {
		h.paint(&buf, colors.dim, "["+component+"]")
		buf.WriteByte(' ')
	}

	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		h.paint(&buf, colors.dim, filepath.Base(frame.File)+":"+strconv.Itoa(frame.Line))
		buf.WriteByte(' ')
	}

	h.paint(&buf, colors.bold, r.Message)

	if len(attrs) > 0 {
		var kv strings.Builder
		for i, a := range attrs {
			if i > 0 {
				kv.WriteByte(' ')
			}
			kv.WriteString(a.Key)
			kv.WriteByte('=')
			kv.WriteString(formatValue(a.Value))
		}
		buf.WriteByte(' ')
		h.paint(&buf, colors.attrs, kv.String())
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs implements slog.Handler.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(next.attrs, h.attrs)
	for _, a := range attrs {
		if h.group == "" && a.Key == componentKey {
			next.component = a.Value.String()
			continue
		}
		next.attrs = append(next.attrs, h.qualify(a))
	}
	return &next
}

// WithGroup implements slog.Handler. Later keys are prefixed "name.".
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.group + name + "."
	return &next
}

func (h *PrettyHandler) qualify(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	a.Key = h.group + a.Key
	return a
}

func (h *PrettyHandler) paint(buf *bytes.Buffer, color, s string) {
	if h.color && color != "" {
		buf.WriteString(color)
		buf.WriteString(s)
		buf.WriteString(colors.reset)
		return
	}
	buf.WriteString(s)
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	default:
		return v.String()
	}
}
