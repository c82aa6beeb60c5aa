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
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(r *Router, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServeHTTPBasicRouting(t *testing.T) {
	r := MustNew()
	r.GET("/users/:id", func(c *Context) {
		_ = c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
	})

	rec := performRequest(r, http.MethodGet, "/users/42")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())
}

func TestServeHTTPNotFound(t *testing.T) {
	r := MustNew()
	r.GET("/known", func(c *Context) { c.NoContent() })

	assert.Equal(t, http.StatusNotFound, performRequest(r, http.MethodGet, "/unknown").Code)
	assert.Equal(t, http.StatusNotFound, performRequest(r, http.MethodPost, "/known").Code)
}

func TestServeHTTPNoRouteHandler(t *testing.T) {
	r := MustNew(WithNoRoute(func(c *Context) {
		_ = c.JSON(http.StatusNotFound, map[string]string{"error": "no such endpoint"})
	}))

	rec := performRequest(r, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no such endpoint"}`, rec.Body.String())
}

func TestServeHTTPFreezesOnFirstRequest(t *testing.T) {
	r := MustNew()
	r.GET("/a", func(c *Context) { c.NoContent() })

	require.False(t, r.IsFrozen())
	performRequest(r, http.MethodGet, "/a")
	assert.True(t, r.IsFrozen())

	assert.Panics(t, func() {
		r.GET("/late", func(c *Context) {})
	})
}

func TestServeHTTPGlobalMiddleware(t *testing.T) {
	r := MustNew()
	var order []string
	r.Use(func(c *Context) {
		order = append(order, "global")
		c.Next()
	})
	r.GET("/x", func(c *Context) {
		order = append(order, "handler")
		c.NoContent()
	})

	performRequest(r, http.MethodGet, "/x")
	assert.Equal(t, []string{"global", "handler"}, order)
}

func TestServeHTTPShortCircuitMiddleware(t *testing.T) {
	r := MustNew()
	handlerRan := false
	r.GET("/guarded",
		func(c *Context) {
			// Responds without calling Next.
			c.AbortWithStatus(http.StatusForbidden)
		},
		func(c *Context) {
			handlerRan = true
			c.NoContent()
		},
	)

	rec := performRequest(r, http.MethodGet, "/guarded")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, handlerRan)
}

func TestServeHTTPWildcard(t *testing.T) {
	r := MustNew()
	r.GET("/static/*", func(c *Context) {
		_ = c.String(http.StatusOK, "%s", c.Param(WildcardKey))
	})

	rec := performRequest(r, http.MethodGet, "/static/css/site.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "css/site.css", rec.Body.String())
}

func TestServeHTTPQueryStringIgnoredForRouting(t *testing.T) {
	r := MustNew()
	r.GET("/search", func(c *Context) {
		_ = c.String(http.StatusOK, "q=%s", c.Query("q"))
	})

	rec := performRequest(r, http.MethodGet, "/search?q=routing")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "q=routing", rec.Body.String())
}

func TestServeHTTPConcurrentRequests(t *testing.T) {
	r := MustNew()
	r.GET("/users/:id", func(c *Context) {
		_ = c.String(http.StatusOK, "%s", c.Param("id"))
	})
	r.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("%d", i)
			rec := performRequest(r, http.MethodGet, "/users/"+id)
			assert.Equal(t, id, rec.Body.String(), "pooled contexts must not leak params across requests")
		}(i)
	}
	wg.Wait()
}

func TestServeHTTPCancellationStopsChain(t *testing.T) {
	r := MustNew()
	handlerRan := false
	r.GET("/slow",
		func(c *Context) { c.Next() },
		func(c *Context) {
			handlerRan = true
			c.NoContent()
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/slow", nil).WithContext(ctx)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, handlerRan)
}

func TestServeHTTPCancellationCheckDisabled(t *testing.T) {
	r := MustNew(WithoutCancellationCheck())
	handlerRan := false
	r.GET("/slow", func(c *Context) {
		handlerRan = true
		c.NoContent()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/slow", nil).WithContext(ctx)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, handlerRan)
}

// recordingObserver captures the recorder callbacks for assertions.
type recordingObserver struct {
	started  bool
	ended    bool
	pattern  string
	status   int
	wrapped  bool
	reqCount int
}

type observerState struct{}

func (o *recordingObserver) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	o.started = true
	o.reqCount++
	return ctx, &observerState{}
}

func (o *recordingObserver) WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter {
	o.wrapped = true
	return &responseWriter{ResponseWriter: w}
}

func (o *recordingObserver) BuildRequestLogger(ctx context.Context, req *http.Request, pattern string) *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o *recordingObserver) OnRequestEnd(ctx context.Context, state any, w http.ResponseWriter, pattern string) {
	o.ended = true
	o.pattern = pattern
	if info, ok := w.(ResponseInfo); ok {
		o.status = info.StatusCode()
	}
}

func TestServeHTTPObservabilityLifecycle(t *testing.T) {
	obs := &recordingObserver{}
	r := MustNew(WithObservability(obs))
	r.GET("/users/:id", func(c *Context) {
		c.Logger().Info("handling")
		c.NoContent()
	})

	performRequest(r, http.MethodGet, "/users/9")

	assert.True(t, obs.started)
	assert.True(t, obs.wrapped)
	assert.True(t, obs.ended)
	assert.Equal(t, "/users/:id", obs.pattern, "recorder sees the route pattern, not the raw path")
	assert.Equal(t, http.StatusNoContent, obs.status)
}

func TestServeHTTPObservabilityNotFoundPattern(t *testing.T) {
	obs := &recordingObserver{}
	r := MustNew(WithObservability(obs))

	performRequest(r, http.MethodGet, "/nope")
	assert.Equal(t, NotFoundPattern, obs.pattern)
}

func TestShutdownWithoutServer(t *testing.T) {
	r := MustNew()
	assert.NoError(t, r.Shutdown(context.Background()))
}
