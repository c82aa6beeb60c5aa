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

package timeout

import (
	"time"

	"github.com/quillhttp/quill"
)

// Option defines functional options for timeout middleware configuration.
type Option func(*config)

// WithDuration sets the timeout applied to each request.
func WithDuration(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.duration = d
		}
	}
}

// WithHandler replaces the response written on timeout.
func WithHandler(handler func(c *quill.Context, timeout time.Duration)) Option {
	return func(cfg *config) {
		if handler != nil {
			cfg.handler = handler
		}
	}
}

// WithSkipPaths disables the timeout for exact request paths, typically
// streaming or long-poll endpoints.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			cfg.skipPaths[p] = true
		}
	}
}

// WithSkip disables the timeout when fn returns true.
func WithSkip(fn func(c *quill.Context) bool) Option {
	return func(cfg *config) {
		cfg.skipFunc = fn
	}
}
