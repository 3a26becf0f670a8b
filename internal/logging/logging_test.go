package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{"", LevelInfo, false},
		{"DEBUG", LevelDebug, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, "ParseLevel(%q)", tt.in)
		assert.Equal(t, tt.err, err != nil, "ParseLevel(%q) error", tt.in)
	}
}

func TestNew_TextLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Config{Level: LevelWarn, Writer: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Info("hidden")
	log.Warn("shown", "session", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "session=abc")
}

func TestNew_JSONAndFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "phasegate.log")

	log, closer, err := New(Config{Level: LevelDebug, JSON: true, Writer: &buf, File: path})
	require.NoError(t, err)

	log.With("lesson", "fractions-101").Debug("tick")
	require.NoError(t, closer.Close())

	assert.True(t, strings.Contains(buf.String(), `"lesson":"fractions-101"`))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"tick"`)
}

func TestNew_Quiet(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{Quiet: true, Writer: &buf})
	require.NoError(t, err)
	log.Error("nothing")
	assert.Empty(t, buf.String())
}
