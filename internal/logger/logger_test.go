package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithFormat_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithFormat(0, "json", &buf)

	l.Info("Board: started", "tab", "t1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Board: started", rec["msg"])
	assert.Equal(t, "t1", rec["tab"])
}

func TestNewWithFormat_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithFormat(4, "text", &buf)

	l.Info("dropped")
	assert.Empty(t, buf.String())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithFormat(0, "text", &buf).With("component", "board")

	l.Info("hello")
	assert.Contains(t, buf.String(), "component=board")
}
