// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("event done", File("a.txt"), Event(3), Error(errors.New("boom")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "event done", rec["msg"])
	assert.Equal(t, "a.txt", rec[FieldFile])
	assert.Equal(t, 3.0, rec[FieldEvent])
	assert.Equal(t, "boom", rec[FieldError])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "text")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", Daytime("10:00:00"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "daytime=10:00:00")

	_, err = New(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestFields(t *testing.T) {
	attr := Outcome("truncated")
	assert.Equal(t, FieldOutcome, attr.Key)
	assert.Equal(t, "truncated", attr.Value.String())

	attr = RunID("abc")
	assert.Equal(t, FieldRunID, attr.Key)
}
