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

package quill

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

// noopLogger is the singleton logger used when no observability is configured.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NoopLogger returns the singleton no-op logger. ObservabilityRecorder
// implementations return it when logging is disabled.
func NoopLogger() *slog.Logger {
	return noopLogger
}

// ObservabilityRecorder hooks the request lifecycle for metrics, tracing, and
// logging. The router treats the state token as opaque.
//
// The telemetry package provides an OpenTelemetry-backed implementation;
// custom implementations only need these four methods.
type ObservabilityRecorder interface {
	// OnRequestStart is called before routing begins. It returns a possibly
	// enriched context (trace span, baggage) and an opaque state token. A nil
	// token excludes the request from WrapResponseWriter and OnRequestEnd,
	// but the enriched context is used either way.
	OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any)

	// WrapResponseWriter wraps the writer to capture response metadata. The
	// wrapped writer should implement ResponseInfo. When state is nil the
	// original writer must be returned unchanged.
	WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter

	// BuildRequestLogger returns the request-scoped logger attached to the
	// Context. Implementations should key log attributes on the route pattern
	// rather than the raw path to bound cardinality.
	BuildRequestLogger(ctx context.Context, req *http.Request, pattern string) *slog.Logger

	// OnRequestEnd is called once the chain has settled. pattern is the
	// matched route pattern, or NotFoundPattern when nothing matched.
	OnRequestEnd(ctx context.Context, state any, w http.ResponseWriter, pattern string)
}

// NotFoundPattern is the sentinel pattern reported to observability when no
// route matched. Using a sentinel instead of the raw path keeps metric
// cardinality bounded.
const NotFoundPattern = "_not_found"
