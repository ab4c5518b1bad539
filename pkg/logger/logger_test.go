package logger_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sonsunin65/portfolio-lugsana/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	templogger, err := logger.New().FromBuffer(buff).Make()
	require.NoError(t, err)
	require.NotNil(t, templogger)
	// Get Stats Before
	require.Equal(t, buff.Len(), 0)
	templogger.Logger.Info().Msg("Test")
	// Get Stats After
	require.Contains(t, buff.String(), "Test")
}

func TestLogLevel(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	templogger, err := logger.New().FromBuffer(buff).Level("warn").Make()
	require.NoError(t, err)

	templogger.Logger.Info().Msg("hidden")
	require.Equal(t, 0, buff.Len())

	templogger.Logger.Warn().Msg("shown")
	require.Contains(t, buff.String(), "shown")
}

func TestLogUnknownLevelDefaultsToInfo(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	templogger, err := logger.New().FromBuffer(buff).Level("chatty").Make()
	require.NoError(t, err)

	templogger.Logger.Debug().Msg("debug")
	templogger.Logger.Info().Msg("info")
	require.NotContains(t, buff.String(), "debug")
	require.Contains(t, buff.String(), "info")
}

func TestLogFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.log")
	templogger, err := logger.New().FromPath(path).Make()
	require.NoError(t, err)
	require.NotNil(t, templogger.LogFile)

	templogger.Logger.Info().Msg("to file")
	require.NoError(t, templogger.Close())
}
