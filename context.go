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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"
)

// HandlerFunc is the shared signature for route handlers and middleware.
// Middleware call c.Next to run the remainder of the chain; the terminal
// handler simply writes the response.
//
// Example middleware:
//
//	func Timing() quill.HandlerFunc {
//	    return func(c *quill.Context) {
//	        start := time.Now()
//	        c.Next()
//	        c.Logger().Info("handled", "took", time.Since(start))
//	    }
//	}
type HandlerFunc func(*Context)

// WrapHTTPHandler adapts a stdlib http.Handler into a HandlerFunc, useful
// for mounting third-party handlers such as a Prometheus scrape endpoint:
//
//	r.GET("/metrics", quill.WrapHTTPHandler(promhttp.Handler()))
func WrapHTTPHandler(h http.Handler) HandlerFunc {
	return func(c *Context) {
		h.ServeHTTP(c.Response, c.Request)
	}
}

// maxArrayParams is the number of parameter slots stored in the fixed arrays
// before overflowing to the Params map.
const maxArrayParams = 8

// Context carries one HTTP request through the middleware chain and the
// terminal handler. It exposes the matched path parameters, the query string,
// response helpers, and the Next continuation that drives the chain.
//
// A Context is bound to a single request and must not be retained after the
// handler returns or shared across goroutines: contexts are pooled and reused
// by the router. For async work, copy the values you need before starting the
// goroutine.
//
// Parameter storage is hybrid: captures for routes with up to eight
// parameters live in fixed arrays and allocate nothing; deeper routes
// overflow into the Params map.
type Context struct {
	Request  *http.Request
	Response http.ResponseWriter

	handlers []HandlerFunc
	router   *Router

	index      int32
	paramCount int32

	paramKeys   [maxArrayParams]string
	paramValues [maxArrayParams]string

	// Params holds overflow parameters for routes with more than
	// maxArrayParams captures. Nil in the common case.
	Params map[string]string

	pattern string
	logger  *slog.Logger
	aborted bool
}

// NewContext creates a context outside the router's pool. It is intended for
// tests and for driving the chain executor directly; during normal serving
// contexts come from the router's pool.
func NewContext(w http.ResponseWriter, r *http.Request) *Context {
	return &Context{Request: r, Response: w, index: -1}
}

// reset prepares a pooled context for reuse on a new request.
func (c *Context) reset(w http.ResponseWriter, r *http.Request, router *Router) {
	c.Request = r
	c.Response = w
	c.handlers = nil
	c.router = router
	c.index = -1
	c.paramCount = 0
	c.Params = nil
	c.pattern = ""
	c.logger = nil
	c.aborted = false
}

// Next runs the remainder of the chain: the next middleware in registration
// order, then the terminal handler once the middleware are exhausted. The
// chain only advances through Next, so a middleware that returns without
// calling it short-circuits everything downstream -- a valid terminal state
// used by cache hits and auth rejections, not an error.
//
// Code a middleware places after its Next call executes on the way back out,
// in reverse order, which yields the onion-shaped before/after pattern.
//
// Each call advances the cursor exactly one position. The cursor belongs to
// this context alone, so concurrent requests never share chain state.
// Calling Next twice from the same middleware is a caller bug; the second
// call finds the cursor already past the handlers it ran and does nothing
// beyond advancing it again.
//
// Next returns early when Abort was called or, by default, when the request
// context has been canceled (see WithoutCancellationCheck).
func (c *Context) Next() {
	if c.aborted {
		return
	}
	checkCancel := c.router == nil || c.router.checkCancellation
	if checkCancel && c.Request != nil && c.Request.Context().Err() != nil {
		return
	}

	c.index++
	if c.index < int32(len(c.handlers)) {
		c.handlers[c.index](c)
	}
}

// Abort stops the chain: handlers later in the chain are skipped. Handlers
// that already ran are unaffected, and code after their Next calls still
// executes on unwind.
func (c *Context) Abort() {
	c.aborted = true
}

// AbortWithStatus writes a status-only response and stops the chain.
func (c *Context) AbortWithStatus(code int) {
	c.Status(code)
	c.Abort()
}

// IsAborted reports whether Abort has been called on this context.
func (c *Context) IsAborted() bool {
	return c.aborted
}

// Pattern returns the registered route pattern that matched this request,
// with ":param" and "*" tokens intact (e.g. "/users/:id"). Empty when no
// route matched.
func (c *Context) Pattern() string {
	return c.pattern
}

// setParam records a captured path parameter.
func (c *Context) setParam(key, value string) {
	if c.paramCount < maxArrayParams {
		c.paramKeys[c.paramCount] = key
		c.paramValues[c.paramCount] = value
		c.paramCount++
		return
	}
	if c.Params == nil {
		c.Params = make(map[string]string, 2)
	}
	c.Params[key] = value
}

// Param returns the value captured for a named path parameter, or "" when
// the parameter does not exist. Wildcard captures live under WildcardKey.
//
//	r.GET("/users/:id", func(c *quill.Context) {
//	    id := c.Param("id")
//	    ...
//	})
func (c *Context) Param(key string) string {
	for i := range c.paramCount {
		if c.paramKeys[i] == key {
			return c.paramValues[i]
		}
	}
	return c.Params[key]
}

// ParamMap returns all captured path parameters as a fresh map. The map is a
// copy; mutating it does not affect the context.
func (c *Context) ParamMap() map[string]string {
	params := make(map[string]string, int(c.paramCount)+len(c.Params))
	for i := range c.paramCount {
		params[c.paramKeys[i]] = c.paramValues[i]
	}
	for k, v := range c.Params {
		params[k] = v
	}
	return params
}

// Query returns the value of a URL query parameter, or "" when absent.
func (c *Context) Query(key string) string {
	if c.Request == nil {
		return ""
	}
	return c.Request.URL.Query().Get(key)
}

// DefaultQuery returns the value of a URL query parameter, or def when the
// parameter is absent or empty.
func (c *Context) DefaultQuery(key, def string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return def
}

// Logger returns the request-scoped logger attached by the router's
// observability recorder, or a no-op logger when observability is disabled.
// It never returns nil.
func (c *Context) Logger() *slog.Logger {
	if c.logger == nil {
		return noopLogger
	}
	return c.logger
}

// Written reports whether response headers have been sent. Runtime adapters
// and post-processing middleware must check this before writing to avoid
// double writes.
func (c *Context) Written() bool {
	if rw, ok := c.Response.(ResponseInfo); ok {
		return rw.Written()
	}
	return false
}

// Status writes a status-only response header. Duplicate calls after the
// response has been sent are suppressed by the response writer wrapper.
func (c *Context) Status(code int) {
	c.Response.WriteHeader(code)
}

// NoContent sends a 204 No Content response.
func (c *Context) NoContent() {
	c.Status(http.StatusNoContent)
}

// String sends a plain-text response with the given status code.
func (c *Context) String(code int, format string, values ...any) error {
	c.Response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.Response.WriteHeader(code)
	_, err := fmt.Fprintf(c.Response, format, values...)
	return err
}

// Data sends raw bytes with the given status code and content type.
func (c *Context) Data(code int, contentType string, data []byte) error {
	c.Response.Header().Set("Content-Type", contentType)
	c.Response.WriteHeader(code)
	_, err := c.Response.Write(data)
	return err
}

// JSON sends a JSON response with the given status code. The value is
// encoded to a buffer first so an encoding failure never leaves a
// half-written response.
func (c *Context) JSON(code int, obj any) error {
	var buf strings.Builder
	buf.Grow(256)
	if err := json.NewEncoder(&buf).Encode(obj); err != nil {
		return fmt.Errorf("json encoding failed for type %T: %w", obj, err)
	}

	if c.Response == nil {
		return ErrContextResponseNil
	}
	c.Response.Header().Set("Content-Type", "application/json; charset=utf-8")
	if rw, ok := c.Response.(ResponseInfo); !ok || !rw.Written() {
		c.Response.WriteHeader(code)
	}
	_, err := c.Response.Write([]byte(buf.String()))
	return err
}

// YAML sends a YAML response with the given status code.
func (c *Context) YAML(code int, obj any) error {
	out, err := yaml.Marshal(obj)
	if err != nil {
		return fmt.Errorf("yaml encoding failed for type %T: %w", obj, err)
	}

	if c.Response == nil {
		return ErrContextResponseNil
	}
	c.Response.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	if rw, ok := c.Response.(ResponseInfo); !ok || !rw.Written() {
		c.Response.WriteHeader(code)
	}
	_, err = c.Response.Write(out)
	return err
}

// Redirect sends an HTTP redirect to the given location.
func (c *Context) Redirect(code int, location string) {
	http.Redirect(c.Response, c.Request, location, code)
}
