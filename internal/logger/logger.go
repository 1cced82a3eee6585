package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// DefaultPrefix is prepended to every text-format line so the shim's output
// can be told apart from the host's own log stream.
const DefaultPrefix = "[EmuDecky]"

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

func (l Level) toSlog() slog.Level {
	return slog.Level(4 * (int(l) - int(LevelInfo)))
}

func levelFromSlog(s slog.Level) Level {
	return Level(int(s)/4 + int(LevelInfo))
}

// ParseLevel converts a level name to a Level. Unknown names map to LevelInfo
// and ok is false.
func ParseLevel(s string) (Level, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		s = "WARN"
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), true
		}
	}
	return LevelInfo, false
}

// sink is where records go and how they are rendered.
type sink struct {
	out    io.Writer
	closer io.Closer
	color  bool
	format string
}

var (
	// level is shared by every handler, so SetLevel needs no rebuild.
	level slog.LevelVar

	mu      sync.RWMutex
	current = sink{out: os.Stdout, format: "text"}
	slogger *slog.Logger
)

func init() {
	current.color = isTerminal(os.Stdout.Fd())
	rebuild()
}

// rebuild installs a handler for current. Callers hold no lock.
func rebuild() {
	mu.Lock()
	defer mu.Unlock()

	var h slog.Handler
	if current.format == "json" {
		h = slog.NewJSONHandler(current.out, &slog.HandlerOptions{Level: &level})
	} else {
		h = NewColorTextHandler(current.out, &level, DefaultPrefix, current.color)
	}
	slogger = slog.New(h)
}

// openOutput resolves an output name to a writer. Files are opened for append.
func openOutput(name string) (sink, error) {
	switch strings.ToLower(name) {
	case "stdout":
		return sink{out: os.Stdout, color: isTerminal(os.Stdout.Fd())}, nil
	case "stderr":
		return sink{out: os.Stderr, color: isTerminal(os.Stderr.Fd())}, nil
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return sink{}, fmt.Errorf("failed to open log file %q: %w", name, err)
	}
	return sink{out: f, closer: f}, nil
}

// Init initializes the logger with the given configuration.
// Output can be "stdout", "stderr", or a file path. Empty fields keep their
// current value.
func Init(cfg Config) error {
	if cfg.Output != "" {
		next, err := openOutput(cfg.Output)
		if err != nil {
			return err
		}
		mu.Lock()
		if current.closer != nil {
			_ = current.closer.Close()
		}
		next.format = current.format
		current = next
		mu.Unlock()
	}

	SetLevel(cfg.Level)
	setFormat(cfg.Format)
	rebuild()
	return nil
}

// InitWithWriter routes output to w. Used by tests and embedders.
func InitWithWriter(w io.Writer, lvl, format string, enableColor bool) {
	mu.Lock()
	current.out = w
	current.closer = nil
	current.color = enableColor
	mu.Unlock()

	SetLevel(lvl)
	setFormat(format)
	rebuild()
}

// Close releases the log file opened by Init, if any, and falls back to stdout.
func Close() error {
	mu.Lock()
	c := current.closer
	if c == nil {
		mu.Unlock()
		return nil
	}
	current.out = os.Stdout
	current.closer = nil
	current.color = isTerminal(os.Stdout.Fd())
	mu.Unlock()

	rebuild()
	return c.Close()
}

// SetLevel sets the minimum log level. Unknown names are ignored.
func SetLevel(name string) {
	if l, ok := ParseLevel(name); ok {
		level.Set(l.toSlog())
	}
}

// GetLevel returns the current minimum level
func GetLevel() Level {
	return levelFromSlog(level.Level())
}

// SetFormat sets the output format (text or json). Other values are ignored.
func SetFormat(format string) {
	if setFormat(format) {
		rebuild()
	}
}

func setFormat(format string) bool {
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return false
	}
	mu.Lock()
	current.format = format
	mu.Unlock()
	return true
}

func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

func logAt(ctx context.Context, l slog.Level, msg string, args []any) {
	if l < level.Level() {
		return
	}
	getLogger().Log(ctx, l, msg, appendContextFields(ctx, args)...)
}

// ============================================================================
// Structured Logging API
// ============================================================================

// Debug logs at debug level with structured fields
// Usage: Debug("message", "key1", value1, "key2", value2)
func Debug(msg string, args ...any) { logAt(context.Background(), slog.LevelDebug, msg, args) }

// Info logs at info level with structured fields
func Info(msg string, args ...any) { logAt(context.Background(), slog.LevelInfo, msg, args) }

// Warn logs at warn level with structured fields
func Warn(msg string, args ...any) { logAt(context.Background(), slog.LevelWarn, msg, args) }

// Error logs at error level with structured fields
func Error(msg string, args ...any) { logAt(context.Background(), slog.LevelError, msg, args) }

// ============================================================================
// Context-aware Logging API
// ============================================================================

// DebugCtx logs at debug level and adds the LogContext fields carried by ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelDebug, msg, args)
}

// InfoCtx logs at info level with context
func InfoCtx(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelInfo, msg, args)
}

// WarnCtx logs at warn level with context
func WarnCtx(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelWarn, msg, args)
}

// ErrorCtx logs at error level with context
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	logAt(ctx, slog.LevelError, msg, args)
}

// appendContextFields puts the LogContext fields ahead of args.
func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	fields := [...]struct{ key, val string }{
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
		{KeyCallID, lc.CallID},
		{KeyModule, lc.Module},
		{KeyMethod, lc.Method},
	}
	out := make([]any, 0, 2*len(fields)+len(args))
	for _, f := range fields {
		if f.val != "" {
			out = append(out, f.key, f.val)
		}
	}
	return append(out, args...)
}

// With returns a new slog.Logger with additional attributes
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}

// Duration returns the time since start in milliseconds.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
