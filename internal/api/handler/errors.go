package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/tictactoe/internal/api/apierr"
)

// writeError writes the mapped error response and marks the request span
// as failed for server errors
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if apierr.StatusFor(err) >= http.StatusInternalServerError {
		span := trace.SpanFromContext(r.Context())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	apierr.WriteError(w, err)
}
