// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/lifeline/pkg/monitor"
	"github.com/stratastor/lifeline/pkg/notify"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeMonitor struct {
	status monitor.Status
	err    error
	checks int
}

func (f *fakeMonitor) Status() monitor.Status { return f.status }

func (f *fakeMonitor) CheckConnection(ctx context.Context) error {
	f.checks++
	if f.err != nil {
		f.status.Connected = false
		f.status.ReconnectAttempts++
	}
	return f.err
}

func newLogger(t *testing.T) logger.Logger {
	l, err := logger.New(logger.Config{LogLevel: "debug"})
	require.NoError(t, err)
	return l
}

func connected() monitor.Status {
	return monitor.Status{
		Connected:            true,
		MaxReconnectAttempts: 5,
		ReconnectDelay:       2 * time.Second,
	}
}

func serve(t *testing.T, h Handlers, method, path string) *httptest.ResponseRecorder {
	s := New(0, h, newLogger(t))
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, Handlers{}, http.MethodGet, constants.HealthPath)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestStatusReportsDelayInMilliseconds(t *testing.T) {
	m := &fakeMonitor{status: connected()}
	rec := serve(t, Handlers{Monitor: m}, http.MethodGet, constants.APIStatus)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, float64(0), body["reconnectAttempts"])
	assert.Equal(t, float64(5), body["maxReconnectAttempts"])
	assert.Equal(t, float64(2000), body["reconnectDelay"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestCheckConnected(t *testing.T) {
	m := &fakeMonitor{status: connected()}
	rec := serve(t, Handlers{Monitor: m}, http.MethodPost, constants.APICheck)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, m.checks)
}

func TestCheckDisconnected(t *testing.T) {
	m := &fakeMonitor{
		status: connected(),
		err:    errors.New(errors.HeartbeatRequestFailed, "connection refused"),
	}
	rec := serve(t, Handlers{Monitor: m}, http.MethodPost, constants.APICheck)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connected":false`)
	assert.Contains(t, rec.Body.String(), `"reconnectAttempts":1`)
}

func TestCheckRejectsGet(t *testing.T) {
	m := &fakeMonitor{status: connected()}
	rec := serve(t, Handlers{Monitor: m}, http.MethodGet, constants.APICheck)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, m.checks)
}

func TestBanner(t *testing.T) {
	board := notify.NewBoard()
	h := Handlers{Banners: board}

	rec := serve(t, h, http.MethodGet, constants.APIBanner)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	board.Show(notify.NewBanner(constants.ExhaustedMessage, true))
	rec = serve(t, h, http.MethodGet, constants.APIBanner)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), `id="connection-error"`)
	assert.Contains(t, rec.Body.String(), constants.ExhaustedMessage)
	assert.Contains(t, rec.Body.String(), constants.RefreshButtonText)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "lifeline_connected 1\n")
	})
	rec := serve(t, Handlers{Metrics: metrics}, http.MethodGet, constants.MetricsPath)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lifeline_connected")
}

func TestUnknownRoutesWithoutProxy(t *testing.T) {
	rec := serve(t, Handlers{}, http.MethodGet, "/chat")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoutesGoToProxy(t *testing.T) {
	var got []string
	proxy := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Method+" "+r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		w.WriteHeader(http.StatusTeapot)
	})
	h := Handlers{Proxy: proxy, Monitor: &fakeMonitor{status: connected()}}

	assert.Equal(t, http.StatusTeapot, serve(t, h, http.MethodGet, "/").Code)
	assert.Equal(t, http.StatusTeapot, serve(t, h, http.MethodPost, "/gradio_api/queue/join").Code)
	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, constants.APIStatus).Code)

	assert.Equal(t, []string{"GET /", "POST /gradio_api/queue/join"}, got)
}

func TestServeStopsOnContextCancel(t *testing.T) {
	s := New(0, Handlers{}, newLogger(t))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := fmt.Sprintf("http://%s%s", ln.Addr().String(), constants.HealthPath)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
