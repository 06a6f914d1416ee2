package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/assessment-api/internal/config"
)

func TestNew_WritesJSONFile(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(config.LoggerConfig{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	// Act
	log.Named("Test").Info("hello")
	_ = log.Sync()

	// Assert
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"logger":"Test"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}
