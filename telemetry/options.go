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

import "log/slog"

// Option defines functional options for Recorder configuration.
type Option func(*Recorder)

// WithServiceName sets the service.name attribute on all telemetry.
func WithServiceName(name string) Option {
	return func(r *Recorder) {
		if name != "" {
			r.serviceName = name
		}
	}
}

// WithServiceVersion sets the service.version attribute on all telemetry.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) {
		if version != "" {
			r.serviceVersion = version
		}
	}
}

// WithPrometheus exports metrics through a Prometheus scrape handler
// (the default). Retrieve the handler with PrometheusHandler.
func WithPrometheus() Option {
	return func(r *Recorder) {
		r.metricsProvider = PrometheusProvider
	}
}

// WithOTLP exports metrics over OTLP/HTTP to the given endpoint. An
// "http://" prefix selects a plaintext connection.
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.metricsProvider = OTLPProvider
		r.otlpEndpoint = endpoint
	}
}

// WithStdoutMetrics exports metrics to stdout, for development and tests.
func WithStdoutMetrics() Option {
	return func(r *Recorder) {
		r.metricsProvider = StdoutProvider
	}
}

// WithoutMetrics disables metrics collection.
func WithoutMetrics() Option {
	return func(r *Recorder) {
		r.metricsProvider = NoneProvider
	}
}

// WithOTLPTraces enables tracing with spans pushed over OTLP/HTTP.
func WithOTLPTraces(endpoint string) Option {
	return func(r *Recorder) {
		r.tracesProvider = OTLPProvider
		if endpoint != "" {
			r.otlpEndpoint = endpoint
		}
	}
}

// WithStdoutTraces enables tracing with spans written to stdout.
func WithStdoutTraces() Option {
	return func(r *Recorder) {
		r.tracesProvider = StdoutProvider
	}
}

// WithLogger sets the base logger from which request-scoped loggers are
// derived. Without it, handlers get the no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithExcludePaths excludes exact request paths (health checks, scrape
// endpoints) from metrics, tracing, and request logging.
func WithExcludePaths(paths ...string) Option {
	return func(r *Recorder) {
		for _, p := range paths {
			r.excludePaths[p] = true
		}
	}
}

// WithDurationBuckets overrides the histogram boundaries for request
// duration, in seconds.
func WithDurationBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.durationBuckets = buckets
		}
	}
}
