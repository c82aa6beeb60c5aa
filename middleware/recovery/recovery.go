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

// Package recovery provides middleware that converts handler panics into 500
// responses. The router core deliberately propagates panics; this package is
// the layered error-handling strategy that catches them at the front of the
// chain.
package recovery

import (
	"net/http"
	"runtime"

	"github.com/quillhttp/quill"
)

// config holds the configuration for the recovery middleware.
type config struct {
	stackTrace bool
	stackSize  int
	logger     func(c *quill.Context, err any, stack []byte)
	handler    func(c *quill.Context, err any)
}

// defaultConfig returns the default configuration for recovery middleware.
func defaultConfig() *config {
	return &config{
		stackTrace: true,
		stackSize:  4 << 10,
		logger:     defaultLogger,
		handler:    defaultHandler,
	}
}

// defaultLogger logs the panic and stack through the request-scoped logger.
func defaultLogger(c *quill.Context, err any, stack []byte) {
	c.Logger().Error("panic recovered", "error", err, "stack", string(stack))
}

// defaultHandler sends a 500 response unless one was already written.
func defaultHandler(c *quill.Context, _ any) {
	if c.Written() {
		return
	}
	c.JSON(http.StatusInternalServerError, map[string]any{
		"error": "Internal server error",
		"code":  "INTERNAL_ERROR",
	})
}

// New returns middleware that recovers from panics in downstream handlers.
// Register it first so the deferred recover wraps the whole chain.
//
//	r := quill.MustNew()
//	r.Use(recovery.New())
//
// With a custom handler:
//
//	r.Use(recovery.New(recovery.WithHandler(func(c *quill.Context, err any) {
//	    c.JSON(http.StatusInternalServerError, map[string]any{"error": "oops"})
//	})))
func New(opts ...Option) quill.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *quill.Context) {
		defer func() {
			if err := recover(); err != nil {
				var stack []byte
				if cfg.stackTrace {
					stack = make([]byte, cfg.stackSize)
					stack = stack[:runtime.Stack(stack, false)]
				}
				if cfg.logger != nil {
					cfg.logger(c, err, stack)
				}
				cfg.handler(c, err)
				c.Abort()
			}
		}()

		c.Next()
	}
}
