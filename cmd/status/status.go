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
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/stratastor/lifeline/config"
	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/httpclient"
)

// agentStatus mirrors the status API response
type agentStatus struct {
	Connected            bool   `json:"connected"`
	ReconnectAttempts    int    `json:"reconnectAttempts"`
	MaxReconnectAttempts int    `json:"maxReconnectAttempts"`
	ReconnectDelay       int64  `json:"reconnectDelay"`
	RetryPending         bool   `json:"retryPending"`
	LastError            string `json:"lastError"`
}

func NewStatusCmd() *cobra.Command {
	var (
		host  string
		check bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the connection status reported by the running agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()

			ccfg := httpclient.NewClientConfig()
			ccfg.BaseURL = fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
			ccfg.Timeout = 5 * time.Second
			if check {
				// The agent probes before answering
				if t, err := cfg.Timings(); err == nil {
					ccfg.Timeout += t.ProbeTimeout
				}
			}

			s, err := fetchStatus(context.Background(), httpclient.NewClient(ccfg), check)
			if err != nil {
				return err
			}
			printStatus(s)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host the agent listens on")
	cmd.Flags().BoolVar(&check, "check", false, "Ask the agent to probe the server before reporting")
	return cmd
}

func fetchStatus(ctx context.Context, client *httpclient.Client, check bool) (agentStatus, error) {
	var s agentStatus
	rc := httpclient.RequestConfig{
		Path:    constants.APIStatus,
		Result:  &s,
		Error:   &s,
		Context: ctx,
	}
	if check {
		rc.Path = constants.APICheck
	}
	req := client.NewRequest(rc)

	var (
		resp *resty.Response
		err  error
	)
	if check {
		resp, err = req.Post()
	} else {
		resp, err = req.Get()
	}
	if err != nil {
		return s, fmt.Errorf("lifeline agent is not running: %w", err)
	}

	// A check answers 503 with the status body when the server is unreachable
	if !resp.IsSuccess() && !(check && resp.StatusCode() == http.StatusServiceUnavailable) {
		return s, fmt.Errorf("status request failed: %s", resp.Status())
	}
	return s, nil
}

func printStatus(s agentStatus) {
	state := "connected"
	if !s.Connected {
		state = "disconnected"
	}
	fmt.Printf("Server: %s\n", state)
	fmt.Printf("Reconnect attempts: %d/%d\n", s.ReconnectAttempts, s.MaxReconnectAttempts)
	fmt.Printf("Reconnect delay: %dms\n", s.ReconnectDelay)
	if s.RetryPending {
		fmt.Println("Reconnect attempt pending")
	}
	if s.LastError != "" {
		fmt.Printf("Last error: %s\n", s.LastError)
	}
}
