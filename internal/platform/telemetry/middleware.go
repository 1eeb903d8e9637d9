package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jsamuelsen/quote-engine/internal/platform/telemetry"

// HeaderTraceID echoes the server span's trace id to the caller.
const HeaderTraceID = "X-Trace-ID"

type serverMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	active   metric.Int64UpDownCounter
}

func newServerMetrics() (*serverMetrics, error) {
	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of quote API requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter("http.server.request.total",
		metric.WithDescription("Quote API requests by route and status"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Quote API requests in flight"),
	)
	if err != nil {
		return nil, err
	}

	return &serverMetrics{duration: duration, total: total, active: active}, nil
}

// Middleware opens a server span per request with otelgin, records request
// metrics by route and sets the X-Trace-ID response header.
func Middleware(serviceName string) gin.HandlerFunc {
	tracing := otelgin.Middleware(serviceName)

	metrics, err := newServerMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		start := time.Now()
		route := attribute.String("http.route", c.FullPath())
		method := attribute.String("http.method", c.Request.Method)

		if metrics != nil {
			metrics.active.Add(c.Request.Context(), 1, metric.WithAttributes(method, route))
			defer metrics.active.Add(c.Request.Context(), -1, metric.WithAttributes(method, route))
		}

		// The trace id header must be set before the handler writes.
		c.Writer = &traceHeaderWriter{ResponseWriter: c.Writer, c: c}

		// otelgin runs the rest of the chain inside its span.
		tracing(c)

		if metrics != nil {
			attrs := metric.WithAttributes(method, route, attribute.Int("http.status_code", c.Writer.Status()))
			metrics.duration.Record(c.Request.Context(), time.Since(start).Seconds(), attrs)
			metrics.total.Add(c.Request.Context(), 1, attrs)
		}
	}
}

type traceHeaderWriter struct {
	gin.ResponseWriter
	c    *gin.Context
	done bool
}

func (w *traceHeaderWriter) setHeader() {
	if w.done {
		return
	}

	w.done = true

	if sc := trace.SpanContextFromContext(w.c.Request.Context()); sc.HasTraceID() {
		w.Header().Set(HeaderTraceID, sc.TraceID().String())
	}
}

func (w *traceHeaderWriter) WriteHeader(code int) {
	w.setHeader()
	w.ResponseWriter.WriteHeader(code)
}

func (w *traceHeaderWriter) WriteHeaderNow() {
	w.setHeader()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *traceHeaderWriter) Write(b []byte) (int, error) {
	w.setHeader()
	return w.ResponseWriter.Write(b)
}

func (w *traceHeaderWriter) WriteString(s string) (int, error) {
	w.setHeader()
	return w.ResponseWriter.WriteString(s)
}
