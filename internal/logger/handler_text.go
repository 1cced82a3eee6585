package logger

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// textTimeLayout is the local-time stamp written at the start of each line.
const textTimeLayout = "2006-01-02 15:04:05"

// levelStyle is the label and color for one level band.
type levelStyle struct {
	label string
	color string
}

func styleFor(level slog.Level) levelStyle {
	switch {
	case level < slog.LevelInfo:
		return levelStyle{"DEBUG", colorGray}
	case level < slog.LevelWarn:
		return levelStyle{"INFO", colorGreen}
	case level < slog.LevelError:
		return levelStyle{"WARN", colorYellow}
	default:
		return levelStyle{"ERROR", colorRed}
	}
}

// ColorTextHandler writes one line per record:
//
//	<prefix> [2006-01-02 15:04:05] [LEVEL] message key=value ...
//
// Group names qualify attribute keys with dots.
type ColorTextHandler struct {
	level    slog.Leveler
	w        io.Writer
	mu       *sync.Mutex
	prefix   string
	useColor bool

	// preformatted holds attrs from WithAttrs, already rendered.
	preformatted []byte
	group        string
}

// NewColorTextHandler creates a handler writing to w. prefix may be empty.
func NewColorTextHandler(w io.Writer, level slog.Leveler, prefix string, useColor bool) *ColorTextHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &ColorTextHandler{
		level:    level,
		w:        w,
		mu:       &sync.Mutex{},
		prefix:   prefix,
		useColor: useColor,
	}
}

// Enabled reports whether the handler handles records at the given level
func (h *ColorTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes a log record
func (h *ColorTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	if h.prefix != "" {
		buf = append(buf, h.prefix...)
		buf = append(buf, ' ')
	}

	buf = append(buf, '[')
	buf = r.Time.AppendFormat(buf, textTimeLayout)
	buf = append(buf, "] ["...)
	style := styleFor(r.Level)
	if h.useColor {
		buf = append(buf, style.color...)
		buf = append(buf, style.label...)
		buf = append(buf, colorReset...)
	} else {
		buf = append(buf, style.label...)
	}
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)

	buf = append(buf, h.preformatted...)
	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, h.group, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *ColorTextHandler) appendAttr(buf []byte, group string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}

	key := a.Key
	if group != "" && key != "" {
		key = group + "." + key
	} else if key == "" {
		key = group
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			buf = h.appendAttr(buf, key, ga)
		}
		return buf
	}

	buf = append(buf, ' ')
	if h.useColor {
		buf = append(buf, colorCyan...)
		buf = append(buf, key...)
		buf = append(buf, colorReset...)
	} else {
		buf = append(buf, key...)
	}
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

// appendValue renders v. Strings containing spaces or quotes are quoted so
// each line stays splittable on spaces.
func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.AppendQuote(buf, s)
		}
		return append(buf, s...)
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', 3, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339)
	default:
		return appendValue(buf, slog.StringValue(v.String()))
	}
}

// WithAttrs returns a handler that renders attrs on every record.
func (h *ColorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.preformatted = append([]byte(nil), h.preformatted...)
	for _, a := range attrs {
		clone.preformatted = h.appendAttr(clone.preformatted, h.group, a)
	}
	return &clone
}

// WithGroup returns a handler that qualifies later keys with name.
func (h *ColorTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if h.group != "" {
		clone.group = h.group + "." + name
	} else {
		clone.group = name
	}
	return &clone
}
