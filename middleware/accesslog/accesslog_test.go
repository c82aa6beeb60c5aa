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

package accesslog

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhttp/quill"
	"github.com/quillhttp/quill/middleware/requestid"
)

// logCapture collects slog records for assertions.
type logCapture struct {
	buf bytes.Buffer
}

func (lc *logCapture) logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&lc.buf, nil))
}

func (lc *logCapture) String() string {
	return lc.buf.String()
}

func (lc *logCapture) Empty() bool {
	return lc.buf.Len() == 0
}

func serve(r *quill.Router, method, path string) {
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
}

func TestLogsRequestLine(t *testing.T) {
	var lc logCapture
	r := quill.MustNew()
	r.Use(New(WithLogger(lc.logger())))
	r.GET("/users/:id", func(c *quill.Context) {
		_ = c.String(http.StatusOK, "ok")
	})

	serve(r, http.MethodGet, "/users/42")

	out := lc.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"method":"GET"`)
	assert.Contains(t, out, `"path":"/users/42"`)
	assert.Contains(t, out, `"route":"/users/:id"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"bytes_sent":2`)
	assert.Contains(t, out, `"msg":"request"`)
}

func TestLogLevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"success is info", http.StatusOK, `"level":"INFO"`},
		{"client error is warn", http.StatusBadRequest, `"level":"WARN"`},
		{"server error is error", http.StatusInternalServerError, `"level":"ERROR"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lc logCapture
			r := quill.MustNew()
			r.Use(New(WithLogger(lc.logger())))
			r.GET("/x", func(c *quill.Context) {
				c.Status(tt.status)
			})

			serve(r, http.MethodGet, "/x")
			assert.Contains(t, lc.String(), tt.level)
		})
	}
}

func TestExcludePaths(t *testing.T) {
	var lc logCapture
	r := quill.MustNew()
	r.Use(New(WithLogger(lc.logger()), WithExcludePaths("/health")))
	r.GET("/health", func(c *quill.Context) { c.NoContent() })
	r.GET("/work", func(c *quill.Context) { c.NoContent() })

	serve(r, http.MethodGet, "/health")
	assert.True(t, lc.Empty(), "excluded path must not be logged")

	serve(r, http.MethodGet, "/work")
	assert.False(t, lc.Empty())
}

func TestExcludePrefixes(t *testing.T) {
	var lc logCapture
	r := quill.MustNew()
	r.Use(New(WithLogger(lc.logger()), WithExcludePrefixes("/internal/")))
	r.GET("/internal/debug/vars", func(c *quill.Context) { c.NoContent() })

	serve(r, http.MethodGet, "/internal/debug/vars")
	assert.True(t, lc.Empty())
}

func TestErrorsOnly(t *testing.T) {
	var lc logCapture
	r := quill.MustNew()
	r.Use(New(WithLogger(lc.logger()), WithErrorsOnly()))
	r.GET("/ok", func(c *quill.Context) { c.NoContent() })
	r.GET("/fail", func(c *quill.Context) { c.Status(http.StatusBadGateway) })

	serve(r, http.MethodGet, "/ok")
	assert.True(t, lc.Empty(), "successful requests suppressed in errors-only mode")

	serve(r, http.MethodGet, "/fail")
	assert.Contains(t, lc.String(), `"status":502`)
}

func TestSlowRequestsBypassErrorsOnly(t *testing.T) {
	var lc logCapture
	r := quill.MustNew()
	r.Use(New(
		WithLogger(lc.logger()),
		WithErrorsOnly(),
		WithSlowThreshold(time.Nanosecond),
	))
	r.GET("/slow", func(c *quill.Context) {
		time.Sleep(time.Millisecond)
		c.NoContent()
	})

	serve(r, http.MethodGet, "/slow")
	assert.Contains(t, lc.String(), `"msg":"slow request"`)
}

func TestRequestIDCorrelation(t *testing.T) {
	var lc logCapture
	r := quill.MustNew()
	r.Use(requestid.New(requestid.WithGenerator(func() string { return "req-1" })))
	r.Use(New(WithLogger(lc.logger())))
	r.GET("/x", func(c *quill.Context) { c.NoContent() })

	serve(r, http.MethodGet, "/x")
	assert.Contains(t, lc.String(), `"request_id":"req-1"`)
}

func TestNilLoggerDisablesLogging(t *testing.T) {
	r := quill.MustNew()
	r.Use(New(WithLogger(nil)))
	r.GET("/x", func(c *quill.Context) { c.NoContent() })

	assert.NotPanics(t, func() {
		serve(r, http.MethodGet, "/x")
	})
}
