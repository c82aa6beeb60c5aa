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

import "net/http"

// Group organizes related routes under a shared path prefix and middleware
// stack. Routes registered through a group land in the parent router's trie
// and registry with the fully composed path and middleware, so nested groups
// compose arbitrarily deep:
//
//	api := r.Group("/api", auth)
//	v1 := api.Group("/v1")
//	v1.GET("/users/:id", getUser) // GET /api/v1/users/:id, auth prepended
//
// The final chain for a grouped route is group middleware (outermost group
// first) followed by the route's own middleware, then the handler. Global
// middleware added with Router.Use is prepended to everything at freeze time.
type Group struct {
	router     *Router
	prefix     string
	middleware []HandlerFunc
}

// Group creates a route group on the router with the given path prefix and
// optional middleware.
func (r *Router) Group(prefix string, middleware ...HandlerFunc) *Group {
	return &Group{
		router:     r,
		prefix:     normalizePath(prefix),
		middleware: middleware,
	}
}

// Group creates a nested group. The child's prefix is the parent's prefix
// joined with prefix, and the child inherits the parent's middleware followed
// by any additional middleware given here.
func (g *Group) Group(prefix string, middleware ...HandlerFunc) *Group {
	combined := make([]HandlerFunc, 0, len(g.middleware)+len(middleware))
	combined = append(combined, g.middleware...)
	combined = append(combined, middleware...)

	return &Group{
		router:     g.router,
		prefix:     joinPaths(g.prefix, prefix),
		middleware: combined,
	}
}

// Route creates a nested group and passes it to fn, a callback form for
// defining a subtree in one expression:
//
//	r.Group("/api").Route("/admin", func(admin *quill.Group) {
//	    admin.Use(requireAdmin)
//	    admin.GET("/stats", stats)
//	})
func (g *Group) Route(prefix string, fn func(*Group)) *Group {
	child := g.Group(prefix)
	fn(child)
	return g
}

// Use appends middleware to the group. Only routes registered after the call
// see the new middleware; already registered routes are unaffected.
func (g *Group) Use(middleware ...HandlerFunc) {
	g.middleware = append(g.middleware, middleware...)
}

// handle registers through the parent router with the composed path and the
// group middleware prepended to the route's own middleware.
func (g *Group) handle(method, path string, handlers []HandlerFunc) *Route {
	if len(handlers) == 0 {
		panic(ErrNilHandler)
	}
	routeMW := handlers[:len(handlers)-1]
	handler := handlers[len(handlers)-1]

	combined := make([]HandlerFunc, 0, len(g.middleware)+len(routeMW))
	combined = append(combined, g.middleware...)
	combined = append(combined, routeMW...)

	return g.router.Handle(method, joinPaths(g.prefix, path), combined, handler)
}

// GET registers a GET route under the group prefix.
func (g *Group) GET(path string, handlers ...HandlerFunc) *Route {
	return g.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route under the group prefix.
func (g *Group) POST(path string, handlers ...HandlerFunc) *Route {
	return g.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route under the group prefix.
func (g *Group) PUT(path string, handlers ...HandlerFunc) *Route {
	return g.handle(http.MethodPut, path, handlers)
}

// PATCH registers a PATCH route under the group prefix.
func (g *Group) PATCH(path string, handlers ...HandlerFunc) *Route {
	return g.handle(http.MethodPatch, path, handlers)
}

// DELETE registers a DELETE route under the group prefix.
func (g *Group) DELETE(path string, handlers ...HandlerFunc) *Route {
	return g.handle(http.MethodDelete, path, handlers)
}

// OPTIONS registers an OPTIONS route under the group prefix.
func (g *Group) OPTIONS(path string, handlers ...HandlerFunc) *Route {
	return g.handle(http.MethodOptions, path, handlers)
}

// HEAD registers a HEAD route under the group prefix.
func (g *Group) HEAD(path string, handlers ...HandlerFunc) *Route {
	return g.handle(http.MethodHead, path, handlers)
}

// joinPaths joins two path fragments into normalized form. Either side may
// be empty, "/", or carry stray slashes.
func joinPaths(base, path string) string {
	return normalizePath(base + "/" + path)
}
