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
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ServeHTTP implements http.Handler, making the router mountable on any
// net/http server. It is the runtime adapter boundary: the request arrives
// already parsed, the router resolves (method, path) through the trie, runs
// the chain, and the surrounding server flushes the written response.
//
// The first request freezes the router; configuration and serving are
// mutually exclusive phases, which is what makes lock-free concurrent reads
// of the trie safe.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Freeze()

	ctx := req.Context()
	var obsState any

	if r.observability != nil {
		var enriched context.Context
		enriched, obsState = r.observability.OnRequestStart(ctx, req)
		if enriched != ctx {
			ctx = enriched
			req = req.WithContext(ctx)
		}
		if obsState != nil {
			w = r.observability.WrapResponseWriter(w, obsState)
		}
	}

	// Guarantee ResponseInfo is available downstream even without an
	// observability recorder, so Written() detection always works.
	if _, ok := w.(ResponseInfo); !ok {
		w = &responseWriter{ResponseWriter: w}
	}

	tree := r.trees.tree(req.Method)
	if tree != nil {
		c := r.pool.Get().(*Context)
		c.reset(w, req, r)

		if terminal := tree.lookup(req.URL.Path, c); terminal != nil {
			c.pattern = terminal.pattern
			if r.observability != nil {
				c.logger = r.observability.BuildRequestLogger(ctx, req, terminal.pattern)
			}

			c.handlers = terminal.chain
			c.Next()

			pattern := terminal.pattern
			r.pool.Put(c)

			if obsState != nil {
				r.observability.OnRequestEnd(ctx, obsState, w, pattern)
			}
			return
		}
		r.pool.Put(c)
	}

	r.handleNotFound(w, req, obsState)
}

// handleNotFound serves the configured NoRoute handler, or the stdlib 404
// when none is set. The sentinel NotFoundPattern keeps observability
// cardinality bounded.
func (r *Router) handleNotFound(w http.ResponseWriter, req *http.Request, obsState any) {
	if r.noRoute != nil {
		c := r.pool.Get().(*Context)
		c.reset(w, req, r)
		c.pattern = NotFoundPattern
		c.handlers = []HandlerFunc{r.noRoute}
		c.Next()
		r.pool.Put(c)
	} else {
		http.NotFound(w, req)
	}

	if obsState != nil {
		r.observability.OnRequestEnd(req.Context(), obsState, w, NotFoundPattern)
	}
}

// Serve starts an HTTP server on addr with the router as handler. It blocks
// until the server exits; use Shutdown from another goroutine for graceful
// termination.
//
// The server runs with production-safe timeouts (see WithServerTimeouts).
// When H2C is enabled the handler is wrapped for cleartext HTTP/2; use that
// only in development or behind a trusted load balancer.
func (r *Router) Serve(addr string) error {
	h := http.Handler(r)
	if r.enableH2C {
		h = h2c.NewHandler(h, &http2.Server{})
	}

	timeouts := r.serverTimeouts
	if timeouts == nil {
		timeouts = defaultServerTimeouts()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: timeouts.readHeader,
		ReadTimeout:       timeouts.read,
		WriteTimeout:      timeouts.write,
		IdleTimeout:       timeouts.idle,
	}

	r.serverMu.Lock()
	r.server = srv
	r.serverMu.Unlock()

	return srv.ListenAndServe()
}

// ServeTLS starts an HTTPS server on addr. HTTP/2 is negotiated via ALPN.
func (r *Router) ServeTLS(addr, certFile, keyFile string) error {
	timeouts := r.serverTimeouts
	if timeouts == nil {
		timeouts = defaultServerTimeouts()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: timeouts.readHeader,
		ReadTimeout:       timeouts.read,
		WriteTimeout:      timeouts.write,
		IdleTimeout:       timeouts.idle,
	}

	r.serverMu.Lock()
	r.server = srv
	r.serverMu.Unlock()

	return srv.ListenAndServeTLS(certFile, keyFile)
}

// Shutdown gracefully stops the server started by Serve or ServeTLS, waiting
// for in-flight requests up to the context deadline. It is a no-op when no
// server is running.
func (r *Router) Shutdown(ctx context.Context) error {
	r.serverMu.Lock()
	srv := r.server
	r.serverMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
