package http

import (
	"net/http"
	"strings"

	"lifeboard/internal/core"
	"lifeboard/internal/log"
)

// writeError answers with the status and safe message of err. Server-side
// failures are logged with the request logger.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := core.StatusCode(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).
			ErrorContext(r.Context(), "Request failed",
				log.FieldError, err,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
	}
	ErrorResponse(status, core.Message(err)).Write(w)
}

// writeJSON answers 200 with v.
func writeJSON(w http.ResponseWriter, v any) {
	NewResponse().JSON(v).Write(w)
}

// sanitizeInput drops control characters except tab and newlines and trims
// surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
