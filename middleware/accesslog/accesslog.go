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

// Package accesslog provides structured request logging middleware built on
// log/slog. One line is emitted per request after the chain settles, so
// status, size, and duration reflect the final outcome.
package accesslog

import (
	"log/slog"
	"strings"
	"time"

	"github.com/quillhttp/quill"
	"github.com/quillhttp/quill/middleware"
)

// config holds the configuration for the accesslog middleware.
type config struct {
	logger          *slog.Logger
	excludePaths    map[string]bool
	excludePrefixes []string
	slowThreshold   time.Duration
	errorsOnly      bool
}

// defaultConfig returns the default configuration for accesslog middleware.
func defaultConfig() *config {
	return &config{
		logger:       slog.Default(),
		excludePaths: make(map[string]bool),
	}
}

// New returns access logging middleware. Requests to excluded paths are not
// logged; slow requests and error responses are always logged, even in
// errors-only mode.
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	r.Use(accesslog.New(
//	    accesslog.WithLogger(logger),
//	    accesslog.WithExcludePaths("/health", "/metrics"),
//	    accesslog.WithSlowThreshold(500*time.Millisecond),
//	))
func New(opts ...Option) quill.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *quill.Context) {
		path := c.Request.URL.Path
		if cfg.excludePaths[path] {
			c.Next()
			return
		}
		for _, prefix := range cfg.excludePrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		start := time.Now()

		// The router wraps the writer before the chain runs, so ResponseInfo
		// is available here; a bare writer only appears when the middleware
		// is driven outside the router, e.g. in tests.
		info, hasInfo := c.Response.(quill.ResponseInfo)

		c.Next()

		duration := time.Since(start)
		status := 0
		var size int64
		if hasInfo {
			status = info.StatusCode()
			size = info.Size()
		}

		isError := status >= 400
		isSlow := cfg.slowThreshold > 0 && duration >= cfg.slowThreshold
		if cfg.errorsOnly && !isError && !isSlow {
			return
		}

		logger := cfg.logger
		if logger == nil {
			return
		}

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", duration.Milliseconds(),
			"bytes_sent", size,
			"host", c.Request.Host,
			"user_agent", c.Request.UserAgent(),
		}
		if pattern := c.Pattern(); pattern != "" {
			fields = append(fields, "route", pattern)
		}
		if id := c.Request.Context().Value(middleware.RequestIDKey); id != nil {
			fields = append(fields, "request_id", id)
		}

		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		case isSlow:
			logger.Warn("slow request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
