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

// Package timeout provides middleware that bounds request handling time. It
// races the rest of the chain against a timer: if the timer wins, the
// request context is canceled, a timeout response is written, and the chain
// is aborted. The router core has no timeout of its own; this middleware is
// the intended layering for it.
package timeout

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/quillhttp/quill"
)

// config holds the configuration for the timeout middleware.
type config struct {
	duration  time.Duration
	handler   func(c *quill.Context, timeout time.Duration)
	skipPaths map[string]bool
	skipFunc  func(c *quill.Context) bool
}

// defaultConfig returns the default configuration for timeout middleware.
func defaultConfig() *config {
	return &config{
		duration:  30 * time.Second,
		handler:   defaultHandler,
		skipPaths: make(map[string]bool),
	}
}

// defaultHandler writes a 408 unless the downstream chain already responded.
func defaultHandler(c *quill.Context, timeout time.Duration) {
	if c.Written() {
		return
	}
	c.JSON(http.StatusRequestTimeout, map[string]any{
		"error":   "Request timeout",
		"code":    "TIMEOUT",
		"timeout": timeout.String(),
	})
}

// New returns middleware that cancels requests exceeding the configured
// duration. Handlers must respect c.Request.Context() for the cancellation
// to take effect: timeouts cancel the context, they do not interrupt running
// code.
//
//	r.Use(timeout.New(timeout.WithDuration(5 * time.Second)))
//
// Skip streaming endpoints:
//
//	r.Use(timeout.New(timeout.WithSkipPaths("/events")))
//
// The remainder of the chain runs on a separate goroutine so the timer can
// win the race. After a timeout the middleware still waits for that
// goroutine to finish before returning, because the router returns the
// context to its pool once the chain settles. Panics on the chain goroutine
// are re-raised on the request goroutine so recovery middleware registered
// earlier still catches them.
func New(opts ...Option) quill.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *quill.Context) {
		if cfg.skipPaths[c.Request.URL.Path] || (cfg.skipFunc != nil && cfg.skipFunc(c)) {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.duration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		done := make(chan struct{})
		panicChan := make(chan any, 1)

		go func() {
			defer func() {
				if p := recover(); p != nil {
					panicChan <- p
				}
				close(done)
			}()
			c.Next()
		}()

		select {
		case <-done:
			select {
			case p := <-panicChan:
				panic(p)
			default:
			}
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				c.Logger().Warn("request timeout",
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"timeout", cfg.duration.String(),
				)
				cfg.handler(c, cfg.duration)
				c.Abort()
			}

			// The chain goroutine may still be touching the context; wait for
			// it before the router recycles the context.
			<-done
			select {
			case p := <-panicChan:
				panic(p)
			default:
			}
		}
	}
}
