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

// Package requestid provides middleware that assigns each request a unique
// ID, exposed on the response header and in the request context for log and
// trace correlation.
package requestid

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/quillhttp/quill"
	"github.com/quillhttp/quill/middleware"
)

// config holds the configuration for the requestid middleware.
type config struct {
	headerName    string
	generator     func() string
	allowClientID bool
}

// defaultConfig returns the default configuration for requestid middleware.
func defaultConfig() *config {
	return &config{
		headerName:    "X-Request-ID",
		generator:     generateRandomID,
		allowClientID: true,
	}
}

// generateRandomID returns a 32-character random hex string.
func generateRandomID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing is effectively fatal randomness loss; fall back
		// to a v4 UUID from the runtime-seeded generator.
		return uuid.NewString()
	}
	return hex.EncodeToString(bytes)
}

// FromContext returns the request ID stored by the middleware, or "" when
// the middleware did not run for this request.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(middleware.RequestIDKey).(string)
	return id
}

// New returns middleware that ensures every request carries an ID. An
// incoming header value is reused when client IDs are allowed; otherwise a
// fresh ID is generated. The ID is echoed on the response header and stored
// in the request context.
//
//	r.Use(requestid.New())
//
// UUIDs instead of raw hex:
//
//	r.Use(requestid.New(requestid.WithUUID()))
func New(opts ...Option) quill.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *quill.Context) {
		id := ""
		if cfg.allowClientID {
			id = c.Request.Header.Get(cfg.headerName)
		}
		if id == "" {
			id = cfg.generator()
		}

		c.Response.Header().Set(cfg.headerName, id)
		ctx := context.WithValue(c.Request.Context(), middleware.RequestIDKey, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
