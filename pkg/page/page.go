// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package page rewrites served HTML documents: it keeps a single autofocus
// element and places the connection banner.
package page

import (
	"bytes"
	"io"
	"strings"

	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/lifeline/pkg/notify"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	bannerStyle = "position: fixed; top: 0; left: 0; right: 0; background-color: #f8d7da; " +
		"color: #721c24; padding: 10px; text-align: center; z-index: 9999; font-family: sans-serif;"
	buttonStyle = "margin-left: 10px; padding: 5px 10px; background-color: #721c24; color: white; " +
		"border: none; border-radius: 3px; cursor: pointer;"
	refreshScript = "window.location.reload()"
	refreshLabel  = constants.RefreshButtonText

	autofocusAttr = "autofocus"
)

// walk visits element nodes in document order until fn returns false
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if n.Type == html.ElementNode && !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

// DedupAutofocus strips autofocus from every element except the first in
// document order and returns how many were stripped.
func DedupAutofocus(doc *html.Node) int {
	var flagged []*html.Node
	walk(doc, func(n *html.Node) bool {
		if hasAttr(n, autofocusAttr) {
			flagged = append(flagged, n)
		}
		return true
	})

	if len(flagged) <= 1 {
		return 0
	}
	for _, n := range flagged[1:] {
		removeAttr(n, autofocusAttr)
	}
	return len(flagged) - 1
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

// BannerNode builds the banner element with its refresh button
func BannerNode(b notify.Banner) *html.Node {
	div := element(atom.Div,
		html.Attribute{Key: "id", Val: b.ID},
		html.Attribute{Key: "style", Val: bannerStyle},
	)
	div.AppendChild(&html.Node{Type: html.TextNode, Data: b.Message})

	button := element(atom.Button,
		html.Attribute{Key: "style", Val: buttonStyle},
		html.Attribute{Key: "onclick", Val: refreshScript},
	)
	button.AppendChild(&html.Node{Type: html.TextNode, Data: refreshLabel})
	div.AppendChild(button)

	return div
}

// RenderBanner renders the banner element as an HTML fragment
func RenderBanner(b notify.Banner) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, BannerNode(b)); err != nil {
		return "", errors.Wrap(err, errors.ProxyRewriteFailed)
	}
	return sb.String(), nil
}

// RemoveByID detaches every element with the given id and reports whether any existed
func RemoveByID(doc *html.Node, id string) bool {
	var found []*html.Node
	walk(doc, func(n *html.Node) bool {
		if attr(n, "id") == id {
			found = append(found, n)
		}
		return true
	})
	for _, n := range found {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return len(found) > 0
}

func body(doc *html.Node) *html.Node {
	var b *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.DataAtom == atom.Body {
			b = n
			return false
		}
		return true
	})
	return b
}

// InjectBanner replaces any banner with the same id by a new one at the end of <body>
func InjectBanner(doc *html.Node, b notify.Banner) {
	RemoveByID(doc, b.ID)

	target := body(doc)
	if target == nil {
		target = doc
	}
	target.AppendChild(BannerNode(b))
}

// RewriteOptions selects the rewrites applied by Rewrite
type RewriteOptions struct {
	DedupAutofocus bool
	Banner         *notify.Banner // nil leaves the page without a banner
}

// Result describes what Rewrite changed
type Result struct {
	AutofocusRemoved int
	BannerInjected   bool
}

// Changed reports whether the document differs from its input
func (r Result) Changed() bool {
	return r.AutofocusRemoved > 0 || r.BannerInjected
}

// Rewrite parses a full HTML document, applies opts and renders it again.
// When nothing changes the original bytes are returned untouched.
func Rewrite(r io.Reader, opts RewriteOptions) ([]byte, Result, error) {
	var res Result

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, res, errors.Wrap(err, errors.ProxyRewriteFailed)
	}

	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, res, errors.Wrap(err, errors.ProxyRewriteFailed)
	}

	if opts.DedupAutofocus {
		res.AutofocusRemoved = DedupAutofocus(doc)
	}
	if opts.Banner != nil {
		InjectBanner(doc, *opts.Banner)
		res.BannerInjected = true
	}

	if !res.Changed() {
		return raw, res, nil
	}

	var out bytes.Buffer
	out.Grow(len(raw) + 512)
	if err := html.Render(&out, doc); err != nil {
		return nil, res, errors.Wrap(err, errors.ProxyRewriteFailed)
	}
	return out.Bytes(), res, nil
}
