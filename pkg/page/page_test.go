// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package page

import (
	"strings"
	"testing"

	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const chatPage = `<!DOCTYPE html>
<html><head><title>Travel Assistant</title></head>
<body>
  <div class="gradio"><textarea id="first" autofocus></textarea></div>
  <form><input id="second" autofocus><button id="third" autofocus="">Send</button></form>
</body></html>`

func parse(t *testing.T, s string) *html.Node {
	doc, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func autofocusIDs(doc *html.Node) []string {
	var ids []string
	walk(doc, func(n *html.Node) bool {
		if hasAttr(n, "autofocus") {
			ids = append(ids, attr(n, "id"))
		}
		return true
	})
	return ids
}

func TestDedupAutofocusKeepsFirst(t *testing.T) {
	doc := parse(t, chatPage)

	assert.Equal(t, 2, DedupAutofocus(doc))
	assert.Equal(t, []string{"first"}, autofocusIDs(doc))

	// Running again changes nothing
	assert.Equal(t, 0, DedupAutofocus(doc))
}

func TestDedupAutofocusSingleOrNone(t *testing.T) {
	for _, src := range []string{
		`<html><body><input id="only" autofocus></body></html>`,
		`<html><body><input id="none"></body></html>`,
	} {
		doc := parse(t, src)
		var before strings.Builder
		require.NoError(t, html.Render(&before, doc))

		assert.Equal(t, 0, DedupAutofocus(doc))

		var after strings.Builder
		require.NoError(t, html.Render(&after, doc))
		assert.Equal(t, before.String(), after.String())
	}
}

func TestRenderBanner(t *testing.T) {
	out, err := RenderBanner(notify.NewBanner(constants.LostMessage, false))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, `<div id="connection-error" style="position: fixed; top: 0;`))
	assert.Contains(t, out, constants.LostMessage)
	assert.Contains(t, out, `onclick="window.location.reload()"`)
	assert.Contains(t, out, ">Refresh Page</button></div>")
}

func TestInjectBannerReplacesExisting(t *testing.T) {
	doc := parse(t, chatPage)

	InjectBanner(doc, notify.NewBanner(constants.LostMessage, false))
	InjectBanner(doc, notify.NewBanner(constants.ExhaustedMessage, true))

	var banners []*html.Node
	walk(doc, func(n *html.Node) bool {
		if attr(n, "id") == constants.BannerID {
			banners = append(banners, n)
		}
		return true
	})
	require.Len(t, banners, 1)
	assert.Equal(t, constants.ExhaustedMessage, banners[0].FirstChild.Data)
	assert.Equal(t, "body", banners[0].Parent.Data)

	assert.True(t, RemoveByID(doc, constants.BannerID))
	assert.False(t, RemoveByID(doc, constants.BannerID))
}

func TestRewrite(t *testing.T) {
	banner := notify.NewBanner(constants.LostMessage, false)

	out, res, err := Rewrite(strings.NewReader(chatPage), RewriteOptions{
		DedupAutofocus: true,
		Banner:         &banner,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.AutofocusRemoved)
	assert.True(t, res.BannerInjected)
	assert.Equal(t, 1, strings.Count(string(out), "autofocus"))
	assert.Contains(t, string(out), `id="connection-error"`)

	// Untouched pages come back byte for byte
	plain := `<html><body><p>hi</p></body></html>`
	out, res, err = Rewrite(strings.NewReader(plain), RewriteOptions{DedupAutofocus: true})
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, plain, string(out))
}
