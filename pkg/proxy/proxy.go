// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package proxy forwards browser traffic to the application server.
//
// Requests go through the intercepting transport so that failures on the
// application API paths reach the connection monitor. HTML pages are
// rewritten on the way back: duplicate autofocus attributes are removed and
// the current connection banner, if any, is appended to the body.
package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/lifeline/pkg/notify"
	"github.com/stratastor/lifeline/pkg/page"
	"github.com/stratastor/logger"
)

// BannerSource supplies the banner to inject into pages
type BannerSource interface {
	Current() (notify.Banner, bool)
}

type Config struct {
	Upstream       string
	Transport      http.RoundTripper
	Banners        BannerSource // nil disables injection
	DedupAutofocus bool
}

type Proxy struct {
	target  *url.URL
	banners BannerSource
	dedup   bool
	rp      *httputil.ReverseProxy
	logger  logger.Logger
}

func New(cfg Config, l logger.Logger) (*Proxy, error) {
	target, err := url.Parse(cfg.Upstream)
	if err != nil || target.Host == "" {
		return nil, errors.New(errors.ProxyUpstreamInvalid, "upstream must be an absolute URL").
			WithMetadata("upstream", cfg.Upstream)
	}

	p := &Proxy{
		target:  target,
		banners: cfg.Banners,
		dedup:   cfg.DedupAutofocus,
		logger:  l,
	}
	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewriteRequest,
		Transport:      cfg.Transport,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
	}
	return p, nil
}

func (p *Proxy) Target() *url.URL {
	return p.target
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

func (p *Proxy) rewriting() bool {
	return p.dedup || p.banners != nil
}

func (p *Proxy) rewriteRequest(pr *httputil.ProxyRequest) {
	pr.SetURL(p.target)
	pr.SetXForwarded()

	// Pages must come back uncompressed to be rewritten
	if p.rewriting() && wantsHTML(pr.In) {
		pr.Out.Header.Set("Accept-Encoding", "identity")
	}
}

func wantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func isHTML(resp *http.Response) bool {
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mt != "text/html" {
		return false
	}
	enc := resp.Header.Get("Content-Encoding")
	return enc == "" || enc == "identity"
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	if !p.rewriting() || !isHTML(resp) {
		return nil
	}

	opts := page.RewriteOptions{DedupAutofocus: p.dedup}
	if p.banners != nil {
		if b, ok := p.banners.Current(); ok {
			opts.Banner = &b
		}
	}

	body, res, err := page.Rewrite(resp.Body, opts)
	resp.Body.Close()
	if err != nil {
		return err
	}

	if res.Changed() {
		p.logger.Debug("page rewritten",
			"path", resp.Request.URL.Path,
			"autofocus_removed", res.AutofocusRemoved,
			"banner_injected", res.BannerInjected)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
	return nil
}

// handleError answers upstream failures; the monitor has already heard about
// them through the transport
func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.ProxyUpstreamFailed
	if errors.IsCode(err, errors.ProxyRewriteFailed) {
		code = errors.ProxyRewriteFailed
	}
	le := errors.Wrap(err, code).
		WithMetadata("path", r.URL.Path).
		WithMetadata("upstream", p.target.String())

	if r.Context().Err() != nil {
		p.logger.Debug("client went away", "path", r.URL.Path)
	} else {
		p.logger.Warn("proxy request failed", "error", le)
	}

	writeError(w, le)
}

// writeError answers with the same {"error": message} body the API routes use
func writeError(w http.ResponseWriter, le *errors.LifelineError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(le.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]string{"error": le.Message})
}
