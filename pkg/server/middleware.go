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

package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/logger"
)

const (
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// RequestID makes sure every request carries an id. Proxied requests forward it upstream.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
			c.Request.Header.Set(RequestIDHeader, id)
		}
		c.Header(RequestIDHeader, id)
		c.Set(requestIDKey, id)
		c.Next()
	}
}

// LoggerMiddleware writes one access log line per request. Health checks and
// metric scrapes are not logged.
func LoggerMiddleware(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == constants.HealthPath || path == constants.MetricsPath {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes_out", c.Writer.Size(),
			"ip", c.ClientIP(),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, "query", q)
		}

		// Unmatched routes are served by the reverse proxy, when there is one
		proxied := c.FullPath() == ""
		if proxied {
			fields = append(fields, "proxied", true)
		}
		fields = append(fields, errorFields(c.Errors)...)

		switch {
		case status >= 500 && proxied && len(c.Errors) == 0:
			l.Warn("Upstream unavailable", fields...)
		case status >= 500:
			l.Error("Request failed", fields...)
		case status >= 400:
			l.Warn("Request rejected", fields...)
		default:
			l.Debug("Request", fields...)
		}
	}
}

// errorFields flattens gin errors into log fields; LifelineErrors keep their code and metadata
func errorFields(errs []*gin.Error) []any {
	var fields []any
	for _, ge := range errs {
		var le *errors.LifelineError
		if !errors.As(ge.Err, &le) {
			fields = append(fields, "error", ge.Error())
			continue
		}

		fields = append(fields,
			"error_code", int(le.Code),
			"error_domain", string(le.Domain),
			"error_message", le.Message)
		if le.Details != "" {
			fields = append(fields, "error_details", le.Details)
		}
		for k, v := range le.Metadata {
			fields = append(fields, "error_"+k, v)
		}
	}
	return fields
}
