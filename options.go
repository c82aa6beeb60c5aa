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

import "time"

// WithH2C enables cleartext HTTP/2 for Serve. H2C skips TLS entirely, so use
// it only in development or behind a trusted load balancer that terminates
// TLS.
func WithH2C(enable bool) Option {
	return func(r *Router) {
		r.enableH2C = enable
	}
}

// WithServerTimeouts configures the timeouts used by Serve and ServeTLS.
// All four values must be positive; New fails otherwise.
//
//	quill.WithServerTimeouts(10*time.Second, 30*time.Second, 60*time.Second, 120*time.Second)
func WithServerTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(r *Router) {
		r.serverTimeouts = &serverTimeouts{
			readHeader: readHeader,
			read:       read,
			write:      write,
			idle:       idle,
		}
	}
}

// WithNoRoute sets the handler for requests that match no route. Equivalent
// to calling NoRoute after construction.
func WithNoRoute(handler HandlerFunc) Option {
	return func(r *Router) {
		r.noRoute = handler
	}
}

// WithObservability installs an observability recorder at construction time.
func WithObservability(recorder ObservabilityRecorder) Option {
	return func(r *Router) {
		r.observability = recorder
	}
}

// WithoutCancellationCheck disables the per-step check of the request
// context between chain positions. The check costs one atomic load per
// handler; disable it only for latency-critical services that handle
// cancellation themselves.
func WithoutCancellationCheck() Option {
	return func(r *Router) {
		r.checkCancellation = false
	}
}

// WithCancellationCheck restores the default per-step cancellation check.
func WithCancellationCheck(enabled bool) Option {
	return func(r *Router) {
		r.checkCancellation = enabled
	}
}
