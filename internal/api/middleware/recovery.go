package middleware

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/tictactoe/internal/api/apierr"
	"github.com/mcoot/tictactoe/internal/middleware"
)

// TraceIDHeader carries the request's trace ID on panic responses
const TraceIDHeader = "X-Trace-Id"

// Recovery creates panic recovery middleware for the API.
// Panics become INTERNAL_ERROR JSON responses.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		w.Header().Set(TraceIDHeader, sc.TraceID().String())
	}
	apierr.WriteError(w, apierr.NewInternalError())
}
