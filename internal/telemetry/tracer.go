package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/emudecky/emudecky/internal/logger"
)

// Attribute keys.
const (
	AttrModule    = "emudecky.module"
	AttrHook      = "emudecky.hook"
	AttrMethod    = "emudecky.method"
	AttrCallID    = "emudecky.call_id"
	AttrNamespace = "settings.namespace"
)

// Span names.
const (
	SpanInitialize = "lifecycle.initialize"
	SpanShutdown   = "lifecycle.shutdown"
	SpanCommit     = "settings.commit"
	SpanRead       = "settings.read"
)

// Module returns an attribute for a module name
func Module(name string) attribute.KeyValue {
	return attribute.String(AttrModule, name)
}

// Hook returns an attribute for a lifecycle hook name
func Hook(name string) attribute.KeyValue {
	return attribute.String(AttrHook, name)
}

// Namespace returns an attribute for a settings namespace
func Namespace(ns string) attribute.KeyValue {
	return attribute.String(AttrNamespace, ns)
}

// StartHookSpan starts a span for one module lifecycle hook.
func StartHookSpan(ctx context.Context, module, hook string) (context.Context, trace.Span) {
	return StartSpan(ctx, "module."+hook, trace.WithAttributes(Module(module), Hook(hook)))
}

// StartSettingsSpan starts a span for a settings operation on namespace.
func StartSettingsSpan(ctx context.Context, name, namespace string) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(Namespace(namespace)))
}

// StartCallSpan starts a span for a routed feature call and copies the trace
// identifiers into the call's LogContext, if any.
func StartCallSpan(ctx context.Context, module, method, callID string) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, "route."+method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			Module(module),
			attribute.String(AttrMethod, method),
			attribute.String(AttrCallID, callID),
		))

	if lc := logger.FromContext(ctx); lc != nil {
		ctx = logger.WithContext(ctx, lc.WithTrace(TraceID(ctx), SpanID(ctx)))
	}
	return ctx, span
}
