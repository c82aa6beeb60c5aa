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

package requestid

import "github.com/google/uuid"

// Option defines functional options for requestid middleware configuration.
type Option func(*config)

// WithHeader changes the header used to carry the request ID.
func WithHeader(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.headerName = name
		}
	}
}

// WithGenerator replaces the ID generator.
func WithGenerator(generator func() string) Option {
	return func(cfg *config) {
		if generator != nil {
			cfg.generator = generator
		}
	}
}

// WithUUID generates version 4 UUIDs instead of raw hex strings.
func WithUUID() Option {
	return WithGenerator(uuid.NewString)
}

// WithoutClientID ignores request IDs supplied by clients and always
// generates a fresh one. Use when client-controlled IDs would pollute logs.
func WithoutClientID() Option {
	return func(cfg *config) {
		cfg.allowClientID = false
	}
}
