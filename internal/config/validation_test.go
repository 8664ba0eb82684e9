package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var ve ValidationErrors
	require.True(t, errors.As(err, &ve), "expected ValidationErrors, got %v", err)
	fields := make([]string, 0, len(ve))
	for _, e := range ve {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestValidate_URL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://api.mainnet-beta.solana.com", true},
		{"http://127.0.0.1:8899", true},
		{"http://localhost:8899/rpc?key=1", true},
		{"", false},
		{"not a url", false},
		{"ftp://example.com", false},
		{"api.mainnet-beta.solana.com", false},
		{"http://", false},
		{"https://:8899", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Endpoint.URL = tt.url
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, fieldsOf(t, err), "endpoint.url")
		})
	}
}

func TestValidate_Iterations(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		cfg := DefaultConfig()
		cfg.Run.Iterations = n
		assert.Equal(t, []string{"run.iterations"}, fieldsOf(t, cfg.Validate()))
	}

	cfg := DefaultConfig()
	cfg.Run.Iterations = 1
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Endpoint.URL = "nope"
	cfg.Endpoint.Timeout = 0
	cfg.Run.Iterations = 0
	cfg.Run.Delay = -time.Second
	cfg.Probe.FallbackSlot = 0
	cfg.Logging.Level = "trace"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	assert.ElementsMatch(t, []string{
		"endpoint.url",
		"endpoint.timeout",
		"run.iterations",
		"run.delay",
		"probe.fallback_slot",
		"logging.level",
		"logging.format",
	}, fieldsOf(t, err))
	assert.Contains(t, err.Error(), "configuration validation failed:\n  - ")
}

func TestValidate_LogOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Output = "file"
	assert.Equal(t, []string{"logging.file_path"}, fieldsOf(t, cfg.Validate()))

	cfg.Logging.FilePath = "/tmp/rpc.log"
	assert.NoError(t, cfg.Validate())

	cfg.Logging.Output = "syslog"
	assert.Equal(t, []string{"logging.output"}, fieldsOf(t, cfg.Validate()))
}

func TestValidate_Outputs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Outputs = []OutputConfig{{Type: "json", Arg: "r.json"}, {Type: "csv"}, {}}

	err := NewValidator().WithOutputs([]string{"console", "json"}).Validate(cfg)
	assert.Equal(t, []string{"outputs[1].type", "outputs[2].type"}, fieldsOf(t, err))
	assert.Contains(t, err.Error(), "unknown output type 'csv', available: console, json")

	// 未设置已知输出时只检查非空
	err = NewValidator().Validate(cfg)
	assert.Equal(t, []string{"outputs[2].type"}, fieldsOf(t, err))
}

func TestValidationErrors_Empty(t *testing.T) {
	var ve ValidationErrors
	assert.False(t, ve.HasErrors())
	assert.Equal(t, "", ve.Error())
}
