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

package errors

import "net/http"

const (
	DomainConfig    Domain = "CONFIG"
	DomainServer    Domain = "SERVER"
	DomainHeartbeat Domain = "HEARTBEAT"
	DomainLifecycle Domain = "LIFECYCLE"
	DomainProxy     Domain = "PROXY"
	DomainMessaging Domain = "MESSAGING"
	DomainMisc      Domain = "MISC"
)

// ErrorCode represents unique error identifiers
type ErrorCode int

// Domain represents the subsystem where the error originated
type Domain string

// Error code ranges:
// 1000-1099: Configuration errors
// 1100-1199: Server errors
// 1400-1499: Heartbeat / connection monitoring
// 1500-1599: Lifecycle management
// 1600-1699: Misc program errors
// 1700-1799: Proxy and page rewriting
// 1800-1899: Cross-window messaging
const (
	// Configuration Errors (1000-1099)
	ConfigNotFound         ErrorCode = 1000 + iota // Config file not found
	ConfigInvalid                                  // Invalid config format
	ConfigLoadFailed                               // Failed to load config
	ConfigWriteFailed                              // Failed to write config
	ConfigValidationFailed                         // Config validation failed
	ConfigMarshalFailed                            // Config serialization failed
	ConfigUnmarshalFailed                          // Config deserialization failed
)

const (
	// Server Errors (1100-1199)
	ServerStart             ErrorCode = 1100 + iota // Failed to start server
	ServerShutdown                                  // Error during shutdown
	ServerRequestValidation                         // Request validation failed
	ServerInternalError
)

const (
	// Heartbeat (1400-1499)
	HeartbeatRequestFailed    ErrorCode = 1400 + iota // Probe request could not be sent or answered
	HeartbeatBadStatus                                // Server replied with a non-success status
	HeartbeatSchedule                                 // Failed to schedule a probe
	HeartbeatRetriesExhausted                         // Reconnect attempts used up
)

const (
	// Lifecycle Management (1500-1599)
	LifecyclePID      ErrorCode = 1500 + iota // PID file operation failed
	LifecycleShutdown                         // Shutdown process error
	LifecycleDaemon                           // Daemon operation failed
)

const (
	// Misc (1600-1699)
	LifelineMisc ErrorCode = 1600 + iota
	LoggerError
)

const (
	// Proxy (1700-1799)
	ProxyUpstreamInvalid ErrorCode = 1700 + iota // Upstream URL unusable
	ProxyRewriteFailed                           // HTML rewrite failed
	ProxyUpstreamFailed                          // Upstream request failed
)

const (
	// Messaging (1800-1899)
	MessagingEncodeFailed   ErrorCode = 1800 + iota // Envelope could not be encoded
	MessagingUpgradeFailed                          // WebSocket upgrade failed
	MessagingDeliveryFailed                         // Write to a peer failed
)

var errorDefinitions = map[ErrorCode]struct {
	message    string
	domain     Domain
	httpStatus int
}{
	ConfigNotFound: {
		"Configuration file not found",
		DomainConfig,
		http.StatusNotFound,
	},
	ConfigInvalid: {
		"Invalid configuration format",
		DomainConfig,
		http.StatusBadRequest,
	},
	ConfigLoadFailed: {
		"Failed to load configuration",
		DomainConfig,
		http.StatusInternalServerError,
	},
	ConfigWriteFailed: {
		"Failed to write configuration",
		DomainConfig,
		http.StatusInternalServerError,
	},
	ConfigValidationFailed: {
		"Configuration validation failed",
		DomainConfig,
		http.StatusBadRequest,
	},
	ConfigMarshalFailed: {
		"Failed to serialize configuration",
		DomainConfig,
		http.StatusInternalServerError,
	},
	ConfigUnmarshalFailed: {
		"Failed to parse configuration",
		DomainConfig,
		http.StatusInternalServerError,
	},

	ServerStart: {
		"Failed to start the server",
		DomainServer,
		http.StatusInternalServerError,
	},
	ServerShutdown: {
		"Error during server shutdown",
		DomainServer,
		http.StatusInternalServerError,
	},
	ServerRequestValidation: {
		"Request validation failed",
		DomainServer,
		http.StatusBadRequest,
	},
	ServerInternalError: {
		"Internal server error",
		DomainServer,
		http.StatusInternalServerError,
	},

	HeartbeatRequestFailed: {
		"Heartbeat request failed",
		DomainHeartbeat,
		http.StatusServiceUnavailable,
	},
	HeartbeatBadStatus: {
		"Server returned error status",
		DomainHeartbeat,
		http.StatusBadGateway,
	},
	HeartbeatSchedule: {
		"Failed to schedule heartbeat probe",
		DomainHeartbeat,
		http.StatusInternalServerError,
	},
	HeartbeatRetriesExhausted: {
		"Reconnect attempts exhausted",
		DomainHeartbeat,
		http.StatusServiceUnavailable,
	},

	LifecyclePID: {
		"PID file operation failed",
		DomainLifecycle,
		http.StatusInternalServerError,
	},
	LifecycleShutdown: {
		"Shutdown process error",
		DomainLifecycle,
		http.StatusInternalServerError,
	},
	LifecycleDaemon: {
		"Daemon operation failed",
		DomainLifecycle,
		http.StatusInternalServerError,
	},

	LifelineMisc: {
		"Operation failed",
		DomainMisc,
		http.StatusInternalServerError,
	},
	LoggerError: {
		"Logger error",
		DomainMisc,
		http.StatusInternalServerError,
	},

	ProxyUpstreamInvalid: {
		"Invalid proxy upstream",
		DomainProxy,
		http.StatusBadRequest,
	},
	ProxyRewriteFailed: {
		"Failed to rewrite page",
		DomainProxy,
		http.StatusBadGateway,
	},
	ProxyUpstreamFailed: {
		"Upstream request failed",
		DomainProxy,
		http.StatusBadGateway,
	},

	MessagingEncodeFailed: {
		"Failed to encode message",
		DomainMessaging,
		http.StatusInternalServerError,
	},
	MessagingUpgradeFailed: {
		"Failed to open message channel",
		DomainMessaging,
		http.StatusBadRequest,
	},
	MessagingDeliveryFailed: {
		"Failed to deliver message",
		DomainMessaging,
		http.StatusInternalServerError,
	},
}
