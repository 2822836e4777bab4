package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"info":    zapcore.InfoLevel,
		"DEBUG":   zapcore.DebugLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	req := require.New(t)

	logger, err := New("debug", true)
	req.NoError(err)
	req.True(logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New("warn", false)
	req.NoError(err)
	req.False(logger.Core().Enabled(zapcore.InfoLevel))

	_, err = New("verbose", false)
	req.Error(err)
}
