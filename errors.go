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

import "errors"

var (
	// ErrContextResponseNil indicates that the context response writer is nil.
	ErrContextResponseNil = errors.New("context response is nil")

	// ErrResponseWriterNotHijacker indicates that the underlying
	// ResponseWriter does not implement http.Hijacker.
	ErrResponseWriterNotHijacker = errors.New("response writer does not implement http.Hijacker")

	// ErrServerTimeoutInvalid indicates that a server timeout value is not positive.
	ErrServerTimeoutInvalid = errors.New("server timeout must be positive")

	// ErrRouterFrozen indicates a registration attempt after the router was frozen.
	ErrRouterFrozen = errors.New("router is frozen; register routes before serving")

	// ErrRouteNotFound indicates that no route with the given name is registered.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMissingRouteParameter indicates that a parameter required to build a
	// route URL was not supplied.
	ErrMissingRouteParameter = errors.New("missing required parameter")

	// ErrNilHandler indicates that a route was registered without a terminal handler.
	ErrNilHandler = errors.New("route handler must not be nil")
)
