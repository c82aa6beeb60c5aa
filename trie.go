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

import "strings"

// WildcardKey is the reserved parameter key under which a trailing wildcard
// match stores the remainder of the request path.
const WildcardKey = "*"

// node is one position in a per-method path trie.
//
// Three child kinds exist per node:
//   - static: literal segments, keyed by exact string
//   - param: at most one named parameter child (":id")
//   - wildcard: at most one greedy tail child ("*")
//
// A node is routable only when a handler is attached. Intermediate nodes
// created while registering deeper routes have a nil handler and never match
// as endpoints.
//
// Thread safety: nodes are written only during the registration phase, before
// the router is frozen. After Freeze the trie is immutable and safe for
// concurrent reads without locking.
type node struct {
	static   map[string]*node
	param    *paramChild
	wildcard *node

	middleware []HandlerFunc
	handler    HandlerFunc
	chain      []HandlerFunc // middleware + handler, composed once at registration
	pattern    string        // registered route pattern, ":param" and "*" tokens intact
}

// setEndpoint binds middleware and handler to this node, replacing any
// previous binding, and composes the execution chain.
func (n *node) setEndpoint(pattern string, middleware []HandlerFunc, handler HandlerFunc) {
	n.middleware = middleware
	n.handler = handler
	n.pattern = pattern
	n.chain = make([]HandlerFunc, 0, len(middleware)+1)
	n.chain = append(n.chain, middleware...)
	n.chain = append(n.chain, handler)
}

// paramChild is the single named-parameter slot of a node.
//
// Only one parameter name exists per trie position. Registering a second
// route with a different name at the same position overwrites the name
// (last write wins); the previously registered routes keep matching, but
// their captures are reported under the new name. See router.Handle.
type paramChild struct {
	name string
	node *node
}

// splitPath normalizes a registered or requested path into its segments.
// Query strings are stripped, leading and trailing slashes are insignificant,
// and runs of consecutive slashes collapse. The root path ("", "/", "//")
// normalizes to zero segments.
func splitPath(path string) []string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}

	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, seg := range parts {
		if seg == "" {
			continue // collapsed duplicate slash
		}
		segments = append(segments, seg)
	}
	return segments
}

// addRoute registers (or re-registers) the route terminating at the end of
// path. Re-registering an existing path replaces middleware and handler in
// place; no duplicate trie nodes are created.
//
// A "*" segment is terminal and greedy: anything after it in the registered
// path is ignored, matching the contract that a wildcard is always the last
// segment.
func (n *node) addRoute(path string, middleware []HandlerFunc, handler HandlerFunc) {
	current := n
	for _, segment := range splitPath(path) {
		switch {
		case segment == WildcardKey:
			if current.wildcard == nil {
				current.wildcard = &node{}
			}
			current.wildcard.setEndpoint(path, middleware, handler)
			return

		case strings.HasPrefix(segment, ":"):
			name := segment[1:]
			if current.param == nil {
				current.param = &paramChild{name: name, node: &node{}}
			} else {
				// Last registration wins for the parameter name at this
				// position. Existing routes below keep matching.
				current.param.name = name
			}
			current = current.param.node

		default:
			if current.static == nil {
				current.static = make(map[string]*node)
			}
			child := current.static[segment]
			if child == nil {
				child = &node{}
				current.static[segment] = child
			}
			current = child
		}
	}

	current.setEndpoint(path, middleware, handler)
}

// lookup walks the trie for path and, on a hit, returns the terminal node
// after recording captured parameters into c. Precedence per segment is
// static, then parameter, then wildcard. A wildcard consumes the current
// segment and everything after it under WildcardKey.
//
// A miss returns nil; lookup never fails with an error.
func (n *node) lookup(path string, c *Context) *node {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	current := n
	start := 0
	pathLen := len(path)

	for start < pathLen {
		if path[start] == '/' {
			start++ // skip slashes, including duplicates
			continue
		}

		end := start
		for end < pathLen && path[end] != '/' {
			end++
		}
		segment := path[start:end]

		if next := current.static[segment]; next != nil {
			current = next
		} else if current.param != nil {
			c.setParam(current.param.name, segment)
			current = current.param.node
		} else if current.wildcard != nil {
			c.setParam(WildcardKey, strings.Trim(path[start:], "/"))
			current = current.wildcard
			break
		} else {
			return nil
		}

		start = end + 1
	}

	if current.handler == nil {
		return nil // intermediate node, not an endpoint
	}
	return current
}
