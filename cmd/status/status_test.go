/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package status

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agentAPI(t *testing.T) (*httpclient.Client, *[]string) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == constants.APIStatus:
			io.WriteString(w, `{"connected":true,"reconnectAttempts":0,"maxReconnectAttempts":5,"reconnectDelay":2000}`)
		case r.Method == http.MethodPost && r.URL.Path == constants.APICheck:
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"connected":false,"reconnectAttempts":1,"maxReconnectAttempts":5,`+
				`"reconnectDelay":3000,"retryPending":true,"lastError":"Connection error: refused"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"not found"}`)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := httpclient.NewClientConfig()
	cfg.BaseURL = srv.URL
	return httpclient.NewClient(cfg), &seen
}

func TestFetchStatus(t *testing.T) {
	client, seen := agentAPI(t)

	s, err := fetchStatus(context.Background(), client, false)
	require.NoError(t, err)
	assert.True(t, s.Connected)
	assert.Equal(t, int64(2000), s.ReconnectDelay)
	assert.Equal(t, []string{"GET " + constants.APIStatus}, *seen)
}

func TestFetchStatusWithCheckDecodesUnavailable(t *testing.T) {
	client, seen := agentAPI(t)

	s, err := fetchStatus(context.Background(), client, true)
	require.NoError(t, err)
	assert.False(t, s.Connected)
	assert.Equal(t, 1, s.ReconnectAttempts)
	assert.True(t, s.RetryPending)
	assert.Equal(t, "Connection error: refused", s.LastError)
	assert.Equal(t, []string{"POST " + constants.APICheck}, *seen)
}

func TestFetchStatusAgentDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := httpclient.NewClientConfig()
	cfg.BaseURL = srv.URL
	srv.Close()

	_, err := fetchStatus(context.Background(), httpclient.NewClient(cfg), false)
	assert.Error(t, err)
}
