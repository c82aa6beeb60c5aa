// Copyright 2025 The Quill Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry provides an OpenTelemetry-backed implementation of
// quill.ObservabilityRecorder: request metrics (duration, count, response
// size), distributed tracing, and request-scoped structured logging.
//
// Metrics export through Prometheus (default), OTLP/HTTP, or stdout; traces
// through OTLP/HTTP or stdout. All instruments are keyed on the matched
// route pattern rather than the raw path so cardinality stays bounded.
//
//	rec, err := telemetry.New(
//	    telemetry.WithServiceName("orders-api"),
//	    telemetry.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rec.Shutdown(context.Background())
//
//	r := quill.MustNew(quill.WithObservability(rec))
//	r.GET("/metrics", quill.WrapHTTPHandler(rec.PrometheusHandler()))
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/quillhttp/quill"
)

// Provider selects an exporter backend.
type Provider string

const (
	// PrometheusProvider exposes metrics on a Prometheus scrape handler (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes telemetry over OTLP/HTTP.
	OTLPProvider Provider = "otlp"
	// StdoutProvider writes telemetry to stdout, for development and tests.
	StdoutProvider Provider = "stdout"
	// NoneProvider disables the signal entirely.
	NoneProvider Provider = "none"
)

// DefaultDurationBuckets are histogram boundaries for request duration in
// seconds, covering sub-millisecond to ten-second responses.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Recorder implements quill.ObservabilityRecorder on top of the
// OpenTelemetry SDK. Construct with New; the zero value is not usable.
type Recorder struct {
	serviceName    string
	serviceVersion string

	metricsProvider Provider
	tracesProvider  Provider
	otlpEndpoint    string

	logger       *slog.Logger
	excludePaths map[string]bool

	durationBuckets []float64

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	promRegistry *promclient.Registry
	promHandler  http.Handler

	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	responseSize    metric.Int64Histogram

	serviceAttrs []attribute.KeyValue
}

// requestState is the opaque per-request token handed back to the router.
type requestState struct {
	start time.Time
	span  trace.Span
}

// New creates a Recorder and initializes the configured providers. The
// default configuration exports metrics through Prometheus and leaves
// tracing disabled.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		serviceName:     "quill-service",
		serviceVersion:  "0.0.0",
		metricsProvider: PrometheusProvider,
		tracesProvider:  NoneProvider,
		excludePaths:    make(map[string]bool),
		durationBuckets: DefaultDurationBuckets,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.serviceAttrs = []attribute.KeyValue{
		attribute.String("service.name", r.serviceName),
		attribute.String("service.version", r.serviceVersion),
	}

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("telemetry: metrics init: %w", err)
	}
	if err := r.initTraces(); err != nil {
		return nil, fmt.Errorf("telemetry: traces init: %w", err)
	}
	return r, nil
}

// MustNew creates a Recorder and panics on initialization failure.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("telemetry.MustNew: %v", err))
	}
	return r
}

// PrometheusHandler returns the scrape handler for the Prometheus provider,
// or nil when metrics use a different provider. Mount it wherever the
// application serves operational endpoints.
func (r *Recorder) PrometheusHandler() http.Handler {
	return r.promHandler
}

// Shutdown flushes and stops the underlying providers.
func (r *Recorder) Shutdown(ctx context.Context) error {
	var firstErr error
	if r.meterProvider != nil {
		if err := r.meterProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if r.tracerProvider != nil {
		if err := r.tracerProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OnRequestStart begins the request span and returns the timing state.
// Excluded paths get the enriched context but a nil state, which tells the
// router to skip the rest of the lifecycle.
func (r *Recorder) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	if r.excludePaths[req.URL.Path] {
		return ctx, nil
	}

	state := &requestState{start: time.Now()}
	if r.tracer != nil {
		ctx, state.span = r.tracer.Start(ctx, req.Method+" "+req.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("url.path", req.URL.Path),
			),
		)
	}
	return ctx, state
}

// WrapResponseWriter wraps the writer so status and size are observable at
// request end. Already-instrumented writers pass through untouched.
func (r *Recorder) WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter {
	if state == nil {
		return w
	}
	if _, ok := w.(quill.ResponseInfo); ok {
		return w
	}
	return &responseWriter{ResponseWriter: w}
}

// BuildRequestLogger returns a logger annotated with the request method and
// matched route pattern, or the no-op logger when logging is not configured.
func (r *Recorder) BuildRequestLogger(ctx context.Context, req *http.Request, pattern string) *slog.Logger {
	if r.logger == nil {
		return quill.NoopLogger()
	}
	logger := r.logger.With("method", req.Method, "route", pattern)
	if span := trace.SpanFromContext(ctx); span.SpanContext().HasTraceID() {
		logger = logger.With("trace_id", span.SpanContext().TraceID().String())
	}
	return logger
}

// OnRequestEnd records the request metrics and finishes the span.
func (r *Recorder) OnRequestEnd(ctx context.Context, state any, w http.ResponseWriter, pattern string) {
	st, ok := state.(*requestState)
	if !ok {
		return
	}

	status := 0
	var size int64
	if info, ok := w.(quill.ResponseInfo); ok {
		status = info.StatusCode()
		size = info.Size()
	}

	attrs := make([]attribute.KeyValue, 0, len(r.serviceAttrs)+3)
	attrs = append(attrs, r.serviceAttrs...)
	attrs = append(attrs,
		attribute.String("http.route", pattern),
		attribute.Int("http.response.status_code", status),
		attribute.String("http.response.status_class", statusClass(status)),
	)
	opt := metric.WithAttributes(attrs...)

	duration := time.Since(st.start).Seconds()
	if r.requestDuration != nil {
		r.requestDuration.Record(ctx, duration, opt)
	}
	if r.requestTotal != nil {
		r.requestTotal.Add(ctx, 1, opt)
	}
	if r.responseSize != nil && size > 0 {
		r.responseSize.Record(ctx, size, opt)
	}

	if st.span != nil {
		st.span.SetAttributes(
			attribute.String("http.route", pattern),
			attribute.Int("http.response.status_code", status),
		)
		if status >= 500 {
			st.span.SetStatus(codes.Error, http.StatusText(status))
		}
		st.span.End()
	}
}

// statusClass buckets a status code into 2xx/3xx/4xx/5xx.
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}

var _ quill.ObservabilityRecorder = (*Recorder)(nil)
