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

package recovery

import "github.com/quillhttp/quill"

// Option defines functional options for recovery middleware configuration.
type Option func(*config)

// WithStackTrace enables or disables stack capture on panic.
func WithStackTrace(enable bool) Option {
	return func(cfg *config) {
		cfg.stackTrace = enable
	}
}

// WithStackSize sets the maximum captured stack size in bytes.
func WithStackSize(size int) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.stackSize = size
		}
	}
}

// WithLogger replaces the panic logger. Pass nil to disable logging.
func WithLogger(logger func(c *quill.Context, err any, stack []byte)) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithHandler replaces the response written after a recovered panic.
func WithHandler(handler func(c *quill.Context, err any)) Option {
	return func(cfg *config) {
		if handler != nil {
			cfg.handler = handler
		}
	}
}
