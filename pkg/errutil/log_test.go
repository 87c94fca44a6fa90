// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package errutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func TestLogError(t *testing.T) {
	t.Run("oops error logs code and context", func(t *testing.T) {
		logger, buf := captureLogger()
		err := oops.Code("SESSION_INVALID").With("operation", "resolve").Errorf("no session")

		LogError(logger, "request failed", err)

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "request failed", record["msg"])
		assert.Equal(t, "SESSION_INVALID", record["code"])
		assert.Contains(t, record["error"], "no session")

		ctx, ok := record["context"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "resolve", ctx["operation"])
	})

	t.Run("plain error logs the message only", func(t *testing.T) {
		logger, buf := captureLogger()

		LogError(logger, "request failed", errors.New("boom"))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "boom", record["error"])
		assert.NotContains(t, record, "code")
	})
}

func TestAssertErrorCode(t *testing.T) {
	err := oops.Code("USER_CONFLICT").Errorf("taken")
	AssertErrorCode(t, err, "USER_CONFLICT")
}

func TestAssertErrorContext(t *testing.T) {
	err := oops.With("operation", "insert user").Errorf("boom")
	AssertErrorContext(t, err, "operation", "insert user")
}
