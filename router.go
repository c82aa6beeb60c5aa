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
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Option defines functional options for router configuration.
type Option func(*Router)

// methodTrees holds per-method trie roots. A switch over the method string
// avoids map hashing on the hot path; roots are created lazily on first
// registration for a method.
type methodTrees struct {
	get     *node
	post    *node
	put     *node
	patch   *node
	delete  *node
	options *node
	head    *node
}

// methodOrder is the fixed enumeration order used by AllowedMethods.
var methodOrder = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodOptions, http.MethodHead,
}

// tree returns the trie root for the given HTTP method, or nil.
func (m *methodTrees) tree(method string) *node {
	switch method {
	case http.MethodGet:
		return m.get
	case http.MethodPost:
		return m.post
	case http.MethodPut:
		return m.put
	case http.MethodPatch:
		return m.patch
	case http.MethodDelete:
		return m.delete
	case http.MethodOptions:
		return m.options
	case http.MethodHead:
		return m.head
	default:
		return nil
	}
}

// treeOrCreate returns the trie root for the given method, creating it on
// first registration. Unknown methods return nil.
func (m *methodTrees) treeOrCreate(method string) *node {
	if n := m.tree(method); n != nil {
		return n
	}
	root := &node{}
	switch method {
	case http.MethodGet:
		m.get = root
	case http.MethodPost:
		m.post = root
	case http.MethodPut:
		m.put = root
	case http.MethodPatch:
		m.patch = root
	case http.MethodDelete:
		m.delete = root
	case http.MethodOptions:
		m.options = root
	case http.MethodHead:
		m.head = root
	default:
		return nil
	}
	return root
}

// Router maps (method, path) pairs to handler chains and executes them.
//
// Lifecycle: construct once with New or MustNew, register routes and global
// middleware during startup, then serve. The first request (or an explicit
// Freeze call) applies global middleware to every registered route and makes
// the route tables immutable; registration after that point panics. During
// serving the router is safe for unrestricted concurrent use.
//
// Re-registering an existing (method, path) before the freeze replaces its
// middleware and handler in place; the flat registry keeps the
// first-registration order, which consumers such as documentation generators
// rely on.
type Router struct {
	trees      methodTrees
	routes     []*Route
	routeIndex map[string]*Route // keyed by method + " " + normalized path
	named      map[string]*Route

	middleware   []HandlerFunc // global middleware, applied to all routes at freeze
	middlewareMu sync.Mutex

	frozen     atomic.Bool
	freezeOnce sync.Once

	observability     ObservabilityRecorder
	noRoute           HandlerFunc
	checkCancellation bool
	enableH2C         bool
	serverTimeouts    *serverTimeouts

	server   *http.Server
	serverMu sync.Mutex

	pool sync.Pool
}

// Match is the result of a successful Lookup: the route's middleware list,
// terminal handler, and the parameters captured from the path. Wildcard
// captures are stored under WildcardKey.
type Match struct {
	Pattern    string
	Middleware []HandlerFunc
	Handler    HandlerFunc
	Params     map[string]string
}

// New creates a router. Options are validated immediately so configuration
// mistakes surface at startup rather than at request time.
//
//	r, err := quill.New(quill.WithServerTimeouts(10*time.Second, 30*time.Second, 60*time.Second, 120*time.Second))
func New(opts ...Option) (*Router, error) {
	r := &Router{
		routeIndex:        make(map[string]*Route),
		named:             make(map[string]*Route),
		checkCancellation: true,
	}
	r.pool.New = func() any {
		return &Context{index: -1}
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("router configuration: %w", err)
	}
	return r, nil
}

// MustNew creates a router and panics on invalid configuration. Convenient
// when configuration errors should abort startup.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("quill.MustNew: %v", err))
	}
	return r
}

// validate checks option-supplied configuration.
func (r *Router) validate() error {
	if t := r.serverTimeouts; t != nil {
		if t.readHeader <= 0 || t.read <= 0 || t.write <= 0 || t.idle <= 0 {
			return ErrServerTimeoutInvalid
		}
	}
	return nil
}

// normalizePath returns the canonical form of a route path: a single leading
// slash, no trailing slash except for the root, no duplicate slashes, query
// string stripped. ":param" and "*" tokens are preserved.
func normalizePath(path string) string {
	segments := splitPath(path)
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

// routeKey builds the registry index key for a (method, path) pair.
func routeKey(method, path string) string {
	return method + " " + path
}

// Handle registers or updates the route for (method, path). It is the
// primitive behind the verb helpers: middleware run in order before handler,
// and re-registering the same pair replaces both in the trie and the flat
// registry without creating duplicates.
//
// Handle panics when called after the router is frozen, when handler is nil,
// or when the method is not one of GET, POST, PUT, PATCH, DELETE, OPTIONS,
// HEAD. Paths with a non-terminal "*" are accepted but everything after the
// wildcard is ignored; a wildcard is always the last segment.
//
// If two routes register different parameter names at the same trie position
// (e.g. "/a/:id" then "/a/:slug"), the last registered name wins for every
// route below that position. Avoid mixing names at one depth.
func (r *Router) Handle(method, path string, middleware []HandlerFunc, handler HandlerFunc) *Route {
	if r.frozen.Load() {
		panic(ErrRouterFrozen)
	}
	if handler == nil {
		panic(ErrNilHandler)
	}

	method = strings.ToUpper(method)
	tree := r.trees.treeOrCreate(method)
	if tree == nil {
		panic(fmt.Sprintf("quill: unsupported HTTP method %q", method))
	}

	normalized := normalizePath(path)

	// Copy to decouple from caller append mutations.
	mw := make([]HandlerFunc, len(middleware))
	copy(mw, middleware)

	tree.addRoute(normalized, mw, handler)

	key := routeKey(method, normalized)
	if existing := r.routeIndex[key]; existing != nil {
		existing.middleware = mw
		existing.handler = handler
		return existing
	}

	route := &Route{
		router:     r,
		method:     method,
		path:       normalized,
		middleware: mw,
		handler:    handler,
	}
	r.routes = append(r.routes, route)
	r.routeIndex[key] = route
	return route
}

// handle splits a variadic handler list into route middleware plus terminal
// handler: the last element is the handler, everything before it middleware.
func (r *Router) handle(method, path string, handlers []HandlerFunc) *Route {
	if len(handlers) == 0 {
		panic(ErrNilHandler)
	}
	return r.Handle(method, path, handlers[:len(handlers)-1], handlers[len(handlers)-1])
}

// GET registers a GET route. The last handler is the terminal handler; any
// preceding handlers are route middleware.
//
//	r.GET("/users/:id", authRequired, getUser)
func (r *Router) GET(path string, handlers ...HandlerFunc) *Route {
	return r.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route.
func (r *Router) POST(path string, handlers ...HandlerFunc) *Route {
	return r.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route.
func (r *Router) PUT(path string, handlers ...HandlerFunc) *Route {
	return r.handle(http.MethodPut, path, handlers)
}

// PATCH registers a PATCH route.
func (r *Router) PATCH(path string, handlers ...HandlerFunc) *Route {
	return r.handle(http.MethodPatch, path, handlers)
}

// DELETE registers a DELETE route.
func (r *Router) DELETE(path string, handlers ...HandlerFunc) *Route {
	return r.handle(http.MethodDelete, path, handlers)
}

// OPTIONS registers an OPTIONS route.
func (r *Router) OPTIONS(path string, handlers ...HandlerFunc) *Route {
	return r.handle(http.MethodOptions, path, handlers)
}

// HEAD registers a HEAD route.
func (r *Router) HEAD(path string, handlers ...HandlerFunc) *Route {
	return r.handle(http.MethodHead, path, handlers)
}

// Use appends global middleware. Global middleware is prepended to every
// registered route's chain when the router freezes, so it runs before group
// and route middleware regardless of registration order.
func (r *Router) Use(middleware ...HandlerFunc) {
	if r.frozen.Load() {
		panic(ErrRouterFrozen)
	}
	r.middlewareMu.Lock()
	defer r.middlewareMu.Unlock()
	r.middleware = append(r.middleware, middleware...)
}

// ApplyGlobalMiddleware prepends the given middleware to every currently
// registered route, re-registering each entry in place. It must run after all
// routes are known; Freeze calls it once with the middleware collected by
// Use. Calling it twice prepends twice.
func (r *Router) ApplyGlobalMiddleware(middleware ...HandlerFunc) {
	if len(middleware) == 0 {
		return
	}
	for _, route := range r.routes {
		combined := make([]HandlerFunc, 0, len(middleware)+len(route.middleware))
		combined = append(combined, middleware...)
		combined = append(combined, route.middleware...)
		tree := r.trees.treeOrCreate(route.method)
		tree.addRoute(route.path, combined, route.handler)
		route.middleware = combined
	}
}

// Freeze finalizes the router: global middleware collected by Use is applied
// to all registered routes, and the route tables become immutable. Freeze is
// idempotent and runs at most once; ServeHTTP calls it automatically on the
// first request. Registration after Freeze panics.
func (r *Router) Freeze() {
	r.freezeOnce.Do(func() {
		r.middlewareMu.Lock()
		global := r.middleware
		r.middlewareMu.Unlock()

		r.ApplyGlobalMiddleware(global...)
		r.frozen.Store(true)
	})
}

// IsFrozen reports whether the router has been frozen.
func (r *Router) IsFrozen() bool {
	return r.frozen.Load()
}

// Lookup resolves (method, path) to the registered middleware, handler, and
// captured parameters. It returns nil when nothing matches; a miss is a
// result, not an error, and the caller decides what response that becomes.
//
// Lookup normalizes exactly like registration: query strings are ignored and
// duplicate or trailing slashes are insignificant.
func (r *Router) Lookup(method, path string) *Match {
	tree := r.trees.tree(strings.ToUpper(method))
	if tree == nil {
		return nil
	}

	var c Context
	c.index = -1
	terminal := tree.lookup(path, &c)
	if terminal == nil {
		return nil
	}

	return &Match{
		Pattern:    terminal.pattern,
		Middleware: terminal.middleware,
		Handler:    terminal.handler,
		Params:     c.ParamMap(),
	}
}

// AllowedMethods returns the HTTP methods for which path has a registered
// route, in a fixed order. Adapters use it to answer 405 Method Not Allowed
// instead of 404 when a path exists under a different method.
func (r *Router) AllowedMethods(path string) []string {
	var allowed []string
	for _, method := range methodOrder {
		tree := r.trees.tree(method)
		if tree == nil {
			continue
		}
		var c Context
		c.index = -1
		if tree.lookup(path, &c) != nil {
			allowed = append(allowed, method)
		}
	}
	return allowed
}

// SetObservabilityRecorder installs the observability recorder used for
// metrics, tracing, and request logging. Pass nil to disable.
func (r *Router) SetObservabilityRecorder(recorder ObservabilityRecorder) {
	r.observability = recorder
}

// NoRoute sets the handler invoked when no route matches. The default writes
// a plain 404 via http.NotFound.
func (r *Router) NoRoute(handler HandlerFunc) {
	r.noRoute = handler
}

// serverTimeouts holds HTTP server timeout configuration.
type serverTimeouts struct {
	readHeader time.Duration
	read       time.Duration
	write      time.Duration
	idle       time.Duration
}

// defaultServerTimeouts returns production-safe defaults that bound
// slow-client connections.
func defaultServerTimeouts() *serverTimeouts {
	return &serverTimeouts{
		readHeader: 10 * time.Second,
		read:       30 * time.Second,
		write:      60 * time.Second,
		idle:       120 * time.Second,
	}
}
