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

// Package quill implements an HTTP router with a per-method path trie and a
// cooperative middleware pipeline.
//
// The router maps (method, path) pairs to a terminal handler plus an ordered
// middleware chain. Paths are made of literal segments, single named
// parameters (":id"), and a trailing greedy wildcard ("*"). Matching is
// deterministic: at every trie position a static segment wins over a
// parameter, and a parameter wins over a wildcard.
//
// Middleware and handlers share one signature, func(*Context). Middleware
// call Context.Next to run the remainder of the chain; code placed after the
// Next call runs in reverse order on the way out, producing the usual
// onion-shaped before/after behavior. A middleware that returns without
// calling Next (or that calls Abort) short-circuits the chain, which is a
// valid terminal state rather than an error.
//
// Basic usage:
//
//	r := quill.MustNew()
//	r.Use(recovery.New())
//	r.GET("/users/:id", func(c *quill.Context) {
//	    c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
//	})
//	log.Fatal(r.Serve(":8080"))
//
// Routes are registered during a single-threaded configuration phase. The
// first request (or an explicit Freeze call) applies global middleware to all
// registered routes and makes the route tables immutable; after that point
// the router is safe for unlimited concurrent reads.
package quill
