// Package middleware carries the teacher's request-logging wrapper for the
// admin HTTP surface (§7), adapted from middleware/logging.go: the
// authorization/CORS/gating/capacity/shell/sysinfo middleware the teacher
// also carries has no SPEC_FULL.md operation to wire to (this pipeline's
// admin surface is read-only and has no multi-tenant access control to
// gate), so it was dropped rather than adapted.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/mblakley/video-grouper/apierrors"
	"github.com/mblakley/video-grouper/log"
)

type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}

	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

// LogRequest wraps an httprouter.Handle with a request/duration/status log
// line and a panic recovery that answers 500 instead of crashing the admin
// listener.
func LogRequest() func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		fn := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			defer func() {
				if err := recover(); err != nil {
					apierrors.WriteHTTPInternalServerError(wrapped, "Internal Server Error", nil)
					log.LogNoGroup("panic handling admin request", "err", err, "trace", string(debug.Stack()))
				}
			}()

			next(wrapped, r, ps)
			log.LogNoGroup(
				"admin request",
				"remote", r.RemoteAddr,
				"proto", r.Proto,
				"method", r.Method,
				"uri", r.URL.RequestURI(),
				"duration", time.Since(start),
				"status", wrapped.status,
			)
		}

		return fn
	}
}
