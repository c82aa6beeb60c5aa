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

package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// instrumentationScope names the meter and tracer owned by this package.
const instrumentationScope = "github.com/quillhttp/quill/telemetry"

// resource builds the OTel resource describing this service.
func (r *Recorder) resource() *sdkresource.Resource {
	return sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(r.serviceName),
		semconv.ServiceVersion(r.serviceVersion),
	)
}

// initMetrics wires the configured metrics exporter and creates the request
// instruments.
func (r *Recorder) initMetrics() error {
	switch r.metricsProvider {
	case NoneProvider:
		return nil

	case PrometheusProvider:
		// A private registry avoids collisions with the process-global one
		// when several recorders coexist in one binary.
		r.promRegistry = promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(r.promRegistry))
		if err != nil {
			return fmt.Errorf("prometheus exporter: %w", err)
		}
		r.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(r.resource()),
			sdkmetric.WithReader(exporter),
		)
		r.promHandler = promhttp.HandlerFor(r.promRegistry, promhttp.HandlerOpts{})

	case OTLPProvider:
		exporter, err := otlpmetrichttp.New(context.Background(), r.otlpMetricOptions()...)
		if err != nil {
			return fmt.Errorf("otlp metric exporter: %w", err)
		}
		r.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(r.resource()),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(30*time.Second))),
		)

	case StdoutProvider:
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("stdout metric exporter: %w", err)
		}
		r.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(r.resource()),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		)

	default:
		return fmt.Errorf("unsupported metrics provider %q", r.metricsProvider)
	}

	meter := r.meterProvider.Meter(instrumentationScope)

	var err error
	r.requestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("request duration instrument: %w", err)
	}

	r.requestTotal, err = meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total HTTP requests handled"),
	)
	if err != nil {
		return fmt.Errorf("request count instrument: %w", err)
	}

	r.responseSize, err = meter.Int64Histogram(
		"http.server.response.body.size",
		metric.WithDescription("HTTP response body size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("response size instrument: %w", err)
	}

	return nil
}

// otlpMetricOptions translates the configured endpoint into exporter options.
func (r *Recorder) otlpMetricOptions() []otlpmetrichttp.Option {
	var opts []otlpmetrichttp.Option
	if endpoint, insecure := parseOTLPEndpoint(r.otlpEndpoint); endpoint != "" {
		opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		if insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
	}
	return opts
}

// initTraces wires the configured trace exporter.
func (r *Recorder) initTraces() error {
	var exporter sdktrace.SpanExporter
	var err error

	switch r.tracesProvider {
	case NoneProvider:
		return nil
	case OTLPProvider:
		var opts []otlptracehttp.Option
		if endpoint, insecure := parseOTLPEndpoint(r.otlpEndpoint); endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
			if insecure {
				opts = append(opts, otlptracehttp.WithInsecure())
			}
		}
		exporter, err = otlptracehttp.New(context.Background(), opts...)
	case StdoutProvider:
		exporter, err = stdouttrace.New()
	default:
		return fmt.Errorf("unsupported traces provider %q", r.tracesProvider)
	}
	if err != nil {
		return fmt.Errorf("trace exporter: %w", err)
	}

	r.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(r.resource()),
		sdktrace.WithBatcher(exporter),
	)
	r.tracer = r.tracerProvider.Tracer(instrumentationScope)
	return nil
}

// parseOTLPEndpoint strips an optional scheme and reports whether the
// endpoint is plaintext HTTP.
func parseOTLPEndpoint(endpoint string) (host string, insecure bool) {
	switch {
	case endpoint == "":
		return "", false
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), true
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), false
	default:
		return endpoint, false
	}
}
