package restep

import (
	"context"
	"log/slog"
)

// DiagnosticKind identifies a non-fatal anomaly found while building a request.
type DiagnosticKind string

const (
	// DiagnosticPathArgumentNotFound: a template placeholder had no bound
	// value and its bare name was substituted.
	DiagnosticPathArgumentNotFound DiagnosticKind = "path_argument_not_found"
	// DiagnosticPathArgumentUnused: a path-placed argument matched no
	// placeholder and was sent as a query parameter instead.
	DiagnosticPathArgumentUnused DiagnosticKind = "path_argument_unused"
)

// Diagnostic is a warning raised during a call. Diagnostics never abort a call.
type Diagnostic struct {
	Endpoint string
	Kind     DiagnosticKind
	Argument string
	Message  string
}

// DiagnosticSink receives diagnostics as they are raised.
type DiagnosticSink func(ctx context.Context, d Diagnostic)

// LogDiagnostics returns a sink that logs each diagnostic at warn level.
// If logger is nil, slog.Default() is used at the time of each call.
func LogDiagnostics(logger *slog.Logger) DiagnosticSink {
	return func(ctx context.Context, d Diagnostic) {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		l.WarnContext(ctx, d.Message,
			slog.String("endpoint", d.Endpoint),
			slog.String("kind", string(d.Kind)),
			slog.String("argument", d.Argument))
	}
}

// CollectDiagnostics returns a sink that appends to *dst. It is not safe for
// concurrent calls.
func CollectDiagnostics(dst *[]Diagnostic) DiagnosticSink {
	return func(_ context.Context, d Diagnostic) {
		*dst = append(*dst, d)
	}
}
