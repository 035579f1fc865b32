// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"testing"

	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/origin"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	l, err := logger.New(logger.Config{LogLevel: "debug"})
	require.NoError(t, err)
	return l
}

func TestBoardShowIsIdempotent(t *testing.T) {
	board := NewBoard()

	_, ok := board.Current()
	assert.False(t, ok)

	board.Show(NewBanner(constants.LostMessage, false))
	board.Show(NewBanner(constants.ExhaustedMessage, true))

	b, ok := board.Current()
	require.True(t, ok)
	assert.Equal(t, constants.BannerID, b.ID)
	assert.Equal(t, constants.ExhaustedMessage, b.Message)
	assert.True(t, b.Terminal)
}

func TestBoardRemoveReportsPresence(t *testing.T) {
	board := NewBoard()
	assert.False(t, board.Remove(), "removing nothing is a no-op")

	board.Show(NewBanner(constants.LostMessage, false))
	assert.True(t, board.Remove())
	assert.False(t, board.Remove())

	board.Clear()
	_, ok := board.Current()
	assert.False(t, ok)
}

func TestPostNotifier(t *testing.T) {
	var posted []BannerMessage
	var targets []string
	poster := origin.PosterFunc(func(message any, targetOrigin string, transfer ...any) error {
		posted = append(posted, message.(BannerMessage))
		targets = append(targets, targetOrigin)
		return nil
	})
	n := NewPostNotifier(origin.ForceOrigin(poster, origin.Static("http://localhost:7860")), testLogger(t))

	n.Clear() // nothing shown yet
	assert.Empty(t, posted)

	n.Show(NewBanner(constants.LostMessage, false))
	n.Clear()
	n.Clear()

	require.Len(t, posted, 2)
	assert.Equal(t, MessageBannerShow, posted[0].Type)
	assert.Equal(t, constants.LostMessage, posted[0].Banner.Message)
	assert.Equal(t, MessageBannerClear, posted[1].Type)
	assert.Nil(t, posted[1].Banner)
	assert.Equal(t, []string{"http://localhost:7860", "http://localhost:7860"}, targets)
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewBoard(), NewBoard()
	m := Multi{a, b, NewLogNotifier(testLogger(t))}

	m.Show(NewBanner("x", false))
	_, okA := a.Current()
	_, okB := b.Current()
	assert.True(t, okA)
	assert.True(t, okB)

	m.Clear()
	_, okA = a.Current()
	_, okB = b.Current()
	assert.False(t, okA)
	assert.False(t, okB)
}
