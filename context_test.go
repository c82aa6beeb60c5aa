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
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestContext builds a context with the given chain, ready to run.
func newTestContext(handlers ...HandlerFunc) (*Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := NewContext(rec, req)
	c.handlers = handlers
	return c, rec
}

// trace returns a middleware that appends before/after markers around its
// Next call.
func trace(log *[]string, name string) HandlerFunc {
	return func(c *Context) {
		*log = append(*log, name+":in")
		c.Next()
		*log = append(*log, name+":out")
	}
}

func TestNextOnionOrdering(t *testing.T) {
	var log []string
	c, _ := newTestContext(
		trace(&log, "a"),
		trace(&log, "b"),
		trace(&log, "c"),
		func(c *Context) { log = append(log, "handler") },
	)

	c.Next()

	require.Equal(t, []string{
		"a:in", "b:in", "c:in",
		"handler",
		"c:out", "b:out", "a:out",
	}, log)
}

func TestNextShortCircuitWithoutCall(t *testing.T) {
	var log []string
	c, rec := newTestContext(
		trace(&log, "a"),
		func(c *Context) {
			// Responds without calling Next: nothing downstream runs.
			log = append(log, "cache")
			c.Status(http.StatusNotModified)
		},
		trace(&log, "never"),
		func(c *Context) { log = append(log, "handler") },
	)

	c.Next()

	assert.Equal(t, []string{"a:in", "cache", "a:out"}, log)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestAbortSkipsDownstream(t *testing.T) {
	var log []string
	c, _ := newTestContext(
		trace(&log, "a"),
		func(c *Context) {
			log = append(log, "auth")
			c.Abort()
			c.Next() // no-op after Abort
			log = append(log, "auth:out")
		},
		func(c *Context) { log = append(log, "handler") },
	)

	c.Next()

	assert.Equal(t, []string{"a:in", "auth", "auth:out", "a:out"}, log)
	assert.True(t, c.IsAborted())
}

func TestAbortWithStatus(t *testing.T) {
	ran := false
	c, rec := newTestContext(
		func(c *Context) {
			c.AbortWithStatus(http.StatusUnauthorized)
			c.Next()
		},
		func(c *Context) { ran = true },
	)

	c.Next()

	assert.False(t, ran)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNextStopsOnCanceledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	reached := false
	c, _ := newTestContext(
		func(c *Context) {
			cancel()
			c.Next()
		},
		func(c *Context) { reached = true },
	)
	c.Request = c.Request.WithContext(ctx)

	c.Next()

	assert.False(t, reached, "chain must stop once the request is canceled")
}

func TestParamHybridStorage(t *testing.T) {
	c := NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	// Two more captures than the fixed arrays hold.
	total := maxArrayParams + 2
	for i := 0; i < total; i++ {
		c.setParam(fmt.Sprintf("p%d", i), fmt.Sprintf("v%d", i))
	}

	for i := 0; i < total; i++ {
		assert.Equal(t, fmt.Sprintf("v%d", i), c.Param(fmt.Sprintf("p%d", i)))
	}
	assert.Empty(t, c.Param("missing"))

	params := c.ParamMap()
	assert.Len(t, params, total)
	assert.NotNil(t, c.Params, "overflow map should be in use")
	assert.Len(t, c.Params, 2)

	// ParamMap hands out a copy.
	params["p0"] = "mutated"
	assert.Equal(t, "v0", c.Param("p0"))
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/search?q=go&empty=", nil)
	c := NewContext(httptest.NewRecorder(), req)

	assert.Equal(t, "go", c.Query("q"))
	assert.Empty(t, c.Query("missing"))
	assert.Equal(t, "go", c.DefaultQuery("q", "fallback"))
	assert.Equal(t, "fallback", c.DefaultQuery("missing", "fallback"))
	assert.Equal(t, "fallback", c.DefaultQuery("empty", "fallback"))
}

func TestJSONResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	c := NewContext(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	err := c.JSON(http.StatusCreated, map[string]string{"name": "quill"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"name":"quill"}`, rec.Body.String())
}

func TestJSONEncodingFailureWritesNothing(t *testing.T) {
	rec := httptest.NewRecorder()
	c := NewContext(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	err := c.JSON(http.StatusOK, func() {}) // funcs are not encodable
	require.Error(t, err)
	assert.Zero(t, rec.Body.Len(), "failed encode must not write a partial body")
}

func TestStringAndDataResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	c := NewContext(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, c.String(http.StatusOK, "hello %s", "world"))
	assert.Equal(t, "hello world", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	c = NewContext(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, c.Data(http.StatusOK, "application/octet-stream", []byte{0x1, 0x2}))
	assert.Equal(t, []byte{0x1, 0x2}, rec.Body.Bytes())
}

func TestYAMLResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	c := NewContext(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	err := c.YAML(http.StatusOK, map[string]string{"name": "quill"})
	require.NoError(t, err)
	assert.Equal(t, "application/yaml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "name: quill")
}

func TestWrittenTracksResponseState(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec}
	c := NewContext(rw, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, c.Written())
	c.Status(http.StatusAccepted)
	assert.True(t, c.Written())

	// A second WriteHeader is suppressed by the wrapper.
	c.Status(http.StatusInternalServerError)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestLoggerNeverNil(t *testing.T) {
	c := NewContext(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, c.Logger())
	c.Logger().Info("discarded") // must not panic
}

func TestWrapHTTPHandler(t *testing.T) {
	wrapped := WrapHTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	c, rec := newTestContext(wrapped)
	c.Next()
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
