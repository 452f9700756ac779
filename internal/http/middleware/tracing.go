package middleware

import (
	"net/http"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"

	"github.com/encanta/encanta/internal/domain"
)

// TracingMiddleware wraps requests in an OpenCensus server span named
// "METHOD /path" and annotates it with request metadata and the response status
func TracingMiddleware(next http.Handler) http.Handler {
	annotated := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.FromContext(r.Context())
		if span == nil {
			next.ServeHTTP(w, r)
			return
		}

		span.AddAttributes(
			trace.StringAttribute("http.host", r.Host),
			trace.StringAttribute("http.user_agent", r.UserAgent()),
		)
		if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
			span.AddAttributes(trace.StringAttribute("http.request_id", requestID))
		}
		if identity, ok := domain.IdentityFromContext(r.Context()); ok {
			span.AddAttributes(trace.StringAttribute("user.id", identity.UserID))
		}

		next.ServeHTTP(&traceResponseWriter{ResponseWriter: w, span: span}, r)
	})

	return &ochttp.Handler{
		Handler: annotated,
		FormatSpanName: func(r *http.Request) string {
			return r.Method + " " + r.URL.Path
		},
		IsPublicEndpoint: true,
	}
}

// traceResponseWriter records the status code on the request span. The span
// status itself is derived by ochttp when the span ends.
type traceResponseWriter struct {
	http.ResponseWriter
	span        *trace.Span
	wroteHeader bool
}

func (trw *traceResponseWriter) WriteHeader(code int) {
	if !trw.wroteHeader {
		trw.wroteHeader = true
		trw.span.AddAttributes(trace.Int64Attribute("http.status_code", int64(code)))
	}
	trw.ResponseWriter.WriteHeader(code)
}

func (trw *traceResponseWriter) Write(b []byte) (int, error) {
	if !trw.wroteHeader {
		trw.WriteHeader(http.StatusOK)
	}
	return trw.ResponseWriter.Write(b)
}

func (trw *traceResponseWriter) Flush() {
	if flusher, ok := trw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

var _ http.Flusher = (*traceResponseWriter)(nil)
