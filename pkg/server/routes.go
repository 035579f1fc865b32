// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/lifeline/pkg/monitor"
	"github.com/stratastor/lifeline/pkg/notify"
	"github.com/stratastor/lifeline/pkg/page"
)

// Monitor is the part of monitor.Monitor the API needs
type Monitor interface {
	Status() monitor.Status
	CheckConnection(ctx context.Context) error
}

// BannerSource supplies the banner currently shown to users
type BannerSource interface {
	Current() (notify.Banner, bool)
}

type statusResponse struct {
	monitor.Status
	ReconnectDelay int64 `json:"reconnectDelay"` // milliseconds
}

func newStatusResponse(s monitor.Status) statusResponse {
	return statusResponse{Status: s, ReconnectDelay: s.ReconnectDelayMs()}
}

func registerRoutes(engine *gin.Engine, h Handlers) {
	engine.GET(constants.HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	if h.Metrics != nil {
		engine.GET(constants.MetricsPath, gin.WrapH(h.Metrics))
	}

	if h.Monitor != nil {
		engine.GET(constants.APIStatus, statusHandler(h.Monitor))
		engine.POST(constants.APICheck, checkHandler(h.Monitor))
	}
	if h.Banners != nil {
		engine.GET(constants.APIBanner, bannerHandler(h.Banners))
	}
	if h.Messages != nil {
		engine.GET(constants.APIMessages, gin.WrapH(h.Messages))
	}

	if h.Proxy != nil {
		engine.NoRoute(gin.WrapH(h.Proxy))
		return
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

func statusHandler(m Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, newStatusResponse(m.Status()))
	}
}

// checkHandler probes right away; 503 tells scripts the server is unreachable
func checkHandler(m Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.CheckConnection(c.Request.Context()); err != nil {
			c.Error(err)
		}

		s := m.Status()
		code := http.StatusOK
		if !s.Connected {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, newStatusResponse(s))
	}
}

func bannerHandler(b BannerSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		banner, ok := b.Current()
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}

		fragment, err := page.RenderBanner(banner)
		if err != nil {
			le := errors.Wrap(err, errors.ServerInternalError)
			c.Error(le)
			c.JSON(le.HTTPStatus, gin.H{"error": le.Message})
			return
		}

		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fragment))
	}
}
