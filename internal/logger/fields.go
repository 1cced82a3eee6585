package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Routing & Lifecycle
	// ========================================================================
	KeyCallID = "call_id" // Identifier of a routed feature call
	KeyModule = "module"  // Module name: Emuchievements, MetaDeck, SteamlessTimes
	KeyMethod = "method"  // Routed method name
	KeyHook   = "hook"    // Lifecycle hook: start, stop
	KeyState  = "state"   // Coordinator state
	KeyFlags  = "flags"   // Module enablement map

	// ========================================================================
	// Settings Store
	// ========================================================================
	KeyKey       = "key"       // Setting key
	KeyNamespace = "namespace" // Settings namespace
	KeyBackend   = "backend"   // Store backend: sqlite, postgres, badger
	KeyCount     = "count"     // Number of entries touched

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyPath       = "path"
	KeyGameID     = "game_id"
	KeyUsername   = "username"
)

// Module returns a slog.Attr for a module name
func Module(name string) slog.Attr {
	return slog.String(KeyModule, name)
}

// Method returns a slog.Attr for a routed method name
func Method(name string) slog.Attr {
	return slog.String(KeyMethod, name)
}

// Hook returns a slog.Attr for a lifecycle hook name
func Hook(name string) slog.Attr {
	return slog.String(KeyHook, name)
}

// State returns a slog.Attr for a coordinator state
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// Key returns a slog.Attr for a setting key
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Namespace returns a slog.Attr for a settings namespace
func Namespace(ns string) slog.Attr {
	return slog.String(KeyNamespace, ns)
}

// Backend returns a slog.Attr for a store backend type
func Backend(b string) slog.Attr {
	return slog.String(KeyBackend, b)
}

// Count returns a slog.Attr for an entry count
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
