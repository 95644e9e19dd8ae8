// Package httpmiddleware contains the net/http middleware chain of the API
// server.
package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to h. The first middleware is the outermost.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RouteFinder returns the route template matching r, or "" if none does.
type RouteFinder func(r *http.Request) string

// MakeRouteFinder resolves routes registered on router.
func MakeRouteFinder(router *mux.Router) RouteFinder {
	return func(r *http.Request) string {
		var match mux.RouteMatch
		if !router.Match(r, &match) || match.Route == nil {
			return ""
		}
		tpl, err := match.Route.GetPathTemplate()
		if err != nil {
			return ""
		}
		return tpl
	}
}

// InjectLogger stores lg in the request context, annotated with the request
// id when RequestID runs earlier in the chain.
func InjectLogger(lg *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLg := lg
			if id := RequestIDFromContext(r.Context()); id != "" {
				reqLg = lg.With(zap.String("request_id", id))
			}
			next.ServeHTTP(w, r.WithContext(zctx.Base(r.Context(), reqLg)))
		})
	}
}

// Telemetry provides the OpenTelemetry providers used by Instrument.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Instrument traces and measures requests with otelhttp. Spans are named
// after the matched route.
func Instrument(service string, find RouteFinder, t Telemetry) Middleware {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, service,
			otelhttp.WithTracerProvider(t.TracerProvider()),
			otelhttp.WithMeterProvider(t.MeterProvider()),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if route := find(r); route != "" {
					return r.Method + " " + route
				}
				return r.Method
			}),
		)
	}
}

// Labeler adds the matched route to the otelhttp metric attributes.
func Labeler(find RouteFinder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if route := find(r); route != "" {
				labeler, _ := otelhttp.LabelerFromContext(r.Context())
				labeler.Add(attribute.String("http.route", route))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LogRequests logs one line per completed request.
func LogRequests(find RouteFinder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			lg := zctx.From(r.Context())
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", find(r)),
				zap.Int("status", sw.status),
				zap.Duration("duration", time.Since(start)),
			}
			if sw.status >= http.StatusInternalServerError {
				lg.Warn("Request failed", fields...)
				return
			}
			lg.Debug("Request", fields...)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// writeError writes the {"code","message"} error body.
func writeError(w http.ResponseWriter, code int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
