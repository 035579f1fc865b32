// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package constants

// Build-time variables set via ldflags
var (
	Version   = "v0.0.1-dev" // Set via -X flag during build
	CommitSHA = "unknown"    // Set via -X flag during build
	BuildTime = "unknown"    // Set via -X flag during build
)

const (
	LifelineVersion     = "v0.0.1"
	LifelinePIDFilePath = "/run/lifeline/lifeline.pid"

	// config
	ConfigFileName = "lifeline.yml"
	ConfigDir      = "/etc/lifeline"

	// routes
	APIVersion  = "v1"
	APIBase     = "/api/" + APIVersion + "/lifeline"
	APIStatus   = APIBase + "/status"
	APICheck    = APIBase + "/check"
	APIBanner   = APIBase + "/banner"
	APIMessages = APIBase + "/messages"
	MetricsPath = "/metrics"
	HealthPath  = "/health"

	// Gradio application paths
	HeartbeatPath = "/gradio_api/heartbeat"
	GradioAPIPath = "/gradio_api/"
	ChatPath      = "/chat"

	// banner
	BannerID          = "connection-error"
	LostMessage       = "Connection to server lost. Attempting to reconnect..."
	ExhaustedMessage  = "Unable to connect to server. Please refresh the page or check your connection."
	RefreshButtonText = "Refresh Page"
)
