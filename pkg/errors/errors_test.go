// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesDefinition(t *testing.T) {
	err := New(HeartbeatBadStatus, "status 502")

	assert.Equal(t, DomainHeartbeat, err.Domain)
	assert.Equal(t, "Server returned error status", err.Message)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
	assert.Equal(t, "[HEARTBEAT-1401] Server returned error status: status 502", err.Error())
}

func TestNewUnknownCode(t *testing.T) {
	err := New(ErrorCode(9999), "")
	assert.Equal(t, DomainMisc, err.Domain)
	assert.Equal(t, "[MISC-9999] Unknown error", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	assert.Nil(t, Wrap(nil, LifelineMisc))

	err := Wrap(io.ErrUnexpectedEOF, HeartbeatRequestFailed).
		WithMetadata("url", "http://localhost/gradio_api/heartbeat")

	assert.True(t, Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, io.ErrUnexpectedEOF, Cause(err))
	assert.Equal(t, "http://localhost/gradio_api/heartbeat", err.Metadata["url"])
}

func TestIsCodeWalksChain(t *testing.T) {
	inner := New(HeartbeatBadStatus, "503")
	outer := Wrap(fmt.Errorf("probe: %w", inner), ServerInternalError)

	assert.True(t, IsCode(outer, ServerInternalError))
	assert.True(t, IsCode(outer, HeartbeatBadStatus))
	assert.False(t, IsCode(outer, ConfigInvalid))
	assert.False(t, IsCode(io.EOF, HeartbeatBadStatus))

	var le *LifelineError
	require.True(t, As(outer, &le))
	assert.Equal(t, ServerInternalError, le.Code)
}
