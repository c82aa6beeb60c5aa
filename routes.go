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
	"slices"
	"strings"
)

// Route is one entry in the flat route registry: an externally visible
// endpoint with its method, normalized path (":param" and "*" tokens intact),
// middleware list, terminal handler, and optional documentation metadata.
//
// The registry is used only for enumeration (documentation generation, URL
// reversal); dispatch always goes through the trie. Metadata setters are
// fluent and must be called during the registration phase.
type Route struct {
	router *Router

	method     string
	path       string
	middleware []HandlerFunc
	handler    HandlerFunc

	name        string
	description string
	tags        []string
}

// Method returns the route's HTTP method.
func (rt *Route) Method() string { return rt.method }

// Path returns the route's normalized path pattern.
func (rt *Route) Path() string { return rt.path }

// SetName names the route for reverse routing via Router.URL. Names must be
// unique per router; renaming replaces the previous association.
func (rt *Route) SetName(name string) *Route {
	if rt.name != "" {
		delete(rt.router.named, rt.name)
	}
	rt.name = name
	if name != "" {
		rt.router.named[name] = rt
	}
	return rt
}

// SetDescription attaches a human-readable description, surfaced through
// Routes() for documentation consumers.
func (rt *Route) SetDescription(description string) *Route {
	rt.description = description
	return rt
}

// SetTags attaches categorization tags, surfaced through Routes().
func (rt *Route) SetTags(tags ...string) *Route {
	rt.tags = tags
	return rt
}

// RouteInfo is an immutable snapshot of one registry entry as returned by
// Routes(). Slices are copies; callers may keep or mutate them freely.
type RouteInfo struct {
	Method      string
	Path        string
	Name        string
	Description string
	Tags        []string
	Middleware  []HandlerFunc
	Handler     HandlerFunc
}

// Routes returns a snapshot of all registered routes in first-registration
// order. The result is a defensive copy, never the live registry: a route
// re-registered under the same (method, path) keeps its original position.
func (r *Router) Routes() []RouteInfo {
	infos := make([]RouteInfo, 0, len(r.routes))
	for _, rt := range r.routes {
		infos = append(infos, RouteInfo{
			Method:      rt.method,
			Path:        rt.path,
			Name:        rt.name,
			Description: rt.description,
			Tags:        slices.Clone(rt.tags),
			Middleware:  slices.Clone(rt.middleware),
			Handler:     rt.handler,
		})
	}
	return infos
}

// URL builds the path for a named route by substituting params into its
// pattern. Every ":name" token must be present in params; a wildcard route
// takes its tail from the WildcardKey entry.
//
//	r.GET("/users/:id", getUser).SetName("users.show")
//	url, err := r.URL("users.show", map[string]string{"id": "42"})
//	// url == "/users/42"
func (r *Router) URL(name string, params map[string]string) (string, error) {
	rt := r.named[name]
	if rt == nil {
		return "", fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}

	segments := splitPath(rt.path)
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		switch {
		case segment == WildcardKey:
			tail, ok := params[WildcardKey]
			if !ok {
				return "", fmt.Errorf("%w: %q for route %q", ErrMissingRouteParameter, WildcardKey, name)
			}
			out = append(out, strings.Trim(tail, "/"))
		case strings.HasPrefix(segment, ":"):
			value, ok := params[segment[1:]]
			if !ok {
				return "", fmt.Errorf("%w: %q for route %q", ErrMissingRouteParameter, segment[1:], name)
			}
			out = append(out, value)
		default:
			out = append(out, segment)
		}
	}

	if len(out) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(out, "/"), nil
}
