package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetup_ParsesLevel(t *testing.T) {
	Setup("debug")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	Setup("error")
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
}

func TestSetup_UnknownLevelDefaultsToInfo(t *testing.T) {
	Setup("nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestLogger_ReturnsInfoLevelByDefault(t *testing.T) {
	Logger()
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
