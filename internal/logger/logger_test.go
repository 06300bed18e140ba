package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevelAndFormat(t *testing.T) {
	log := New(Options{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = New(Options{Level: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNewWritesToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "api.log")

	log := New(Options{Level: "info", Format: "json", File: file})
	log.Info("hello from test")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestNewEmptyLevelIsSilentInfo(t *testing.T) {
	file := filepath.Join(t.TempDir(), "boot.log")

	log := New(Options{File: file})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())

	data, err := os.ReadFile(file)
	if err == nil {
		assert.NotContains(t, string(data), "Invalid log level")
	}
}
