package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gamescraper/models"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	settings := models.DefaultSettings()
	settings.Verbose = true

	logger, err := New(settings)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	settings.Verbose = false
	logger, err = New(settings)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewComponentLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewComponentLogger(zap.New(core), "gamefaqs")
	logger.Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "gamefaqs", entries[0].ContextMap()[FieldComponent])

	assert.NotNil(t, NewComponentLogger(nil, "x"))
}
