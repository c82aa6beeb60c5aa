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

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhttp/quill"
)

func newRouter(mw quill.HandlerFunc, capture *string) *quill.Router {
	r := quill.MustNew()
	r.Use(mw)
	r.GET("/", func(c *quill.Context) {
		if capture != nil {
			*capture = FromContext(c.Request.Context())
		}
		c.NoContent()
	})
	return r
}

func TestGeneratesIDWhenMissing(t *testing.T) {
	var seen string
	r := newRouter(New(), &seen)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	id := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Len(t, id, 32, "default generator emits 16 random bytes as hex")
	assert.Equal(t, id, seen, "context and header must agree")
}

func TestReusesClientID(t *testing.T) {
	var seen string
	r := newRouter(New(), &seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "client-supplied", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "client-supplied", seen)
}

func TestWithoutClientID(t *testing.T) {
	r := newRouter(New(WithoutClientID()), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	id := rec.Header().Get("X-Request-ID")
	assert.NotEmpty(t, id)
	assert.NotEqual(t, "client-supplied", id)
}

func TestWithHeader(t *testing.T) {
	r := newRouter(New(WithHeader("X-Trace-Token")), nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Trace-Token"))
	assert.Empty(t, rec.Header().Get("X-Request-ID"))
}

func TestWithGenerator(t *testing.T) {
	r := newRouter(New(WithGenerator(func() string { return "fixed" })), nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "fixed", rec.Header().Get("X-Request-ID"))
}

func TestWithUUID(t *testing.T) {
	r := newRouter(New(WithUUID()), nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	id := rec.Header().Get("X-Request-ID")
	_, err := uuid.Parse(id)
	assert.NoError(t, err, "id %q should be a valid UUID", id)
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
}
