package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestIsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{" Production ", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, IsProduction(tt.env))
		})
	}
}

func TestNewConfigTagsEntries(t *testing.T) {
	prod := newConfig("prod")
	assert.Equal(t, "json", prod.Encoding)
	assert.Equal(t, ServiceName, prod.InitialFields["service"])
	assert.Equal(t, "production", prod.InitialFields["env"])

	dev := newConfig("")
	assert.Equal(t, "console", dev.Encoding)
	assert.Equal(t, "development", dev.InitialFields["env"])
	assert.Equal(t, "timestamp", dev.EncoderConfig.TimeKey)
}

func TestInit(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	require.NoError(t, Init("production"))
	assert.False(t, Get().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("prod"))
	assert.False(t, Get().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("development"))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
}

func TestGetWithoutInit(t *testing.T) {
	Logger = nil
	assert.NotNil(t, Get())
	assert.NotPanics(t, Sync)
}
