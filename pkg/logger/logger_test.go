package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.WarnLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestInit_WritesJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "info", Format: "json", Writer: &buf})
	defer Init(nil)

	Info("attempt finished", zap.String("method", "getSlot"))
	Debug("hidden")
	Sync()

	out := buf.String()
	assert.Contains(t, out, `"msg":"attempt finished"`)
	assert.Contains(t, out, `"method":"getSlot"`)
	assert.NotContains(t, out, "hidden")
}

func TestEnableDebug(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "error", Format: "json", Writer: &buf})
	defer Init(nil)

	assert.False(t, IsDebugEnabled())
	EnableDebug()
	assert.True(t, IsDebugEnabled())

	Debug("now visible")
	Sync()
	assert.Contains(t, buf.String(), "now visible")
}
