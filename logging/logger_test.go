package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Output: &buf, JSON: true})
	require.NotNil(t, logger)

	t.Run("Levels", func(t *testing.T) {
		for _, msg := range []string{"debug msg", "info msg", "warn msg", "error msg"} {
			buf.Reset()
			switch msg {
			case "debug msg":
				logger.Debug(msg)
			case "info msg":
				logger.Info(msg)
			case "warn msg":
				logger.Warn(msg)
			default:
				logger.Error(msg)
			}
			assert.Contains(t, buf.String(), msg)
		}
	})

	t.Run("DynamicLevel", func(t *testing.T) {
		logger.SetLevel(LevelError)
		defer logger.SetLevel(LevelDebug)
		assert.Equal(t, LevelError, logger.GetLevel())

		buf.Reset()
		logger.Info("should not appear")
		assert.Zero(t, buf.Len())
	})

	t.Run("WithComponent", func(t *testing.T) {
		buf.Reset()
		logger.WithComponent("applier").Info("step")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "applier", entry["component"])
	})

	t.Run("ComponentSharesLevel", func(t *testing.T) {
		child := logger.WithComponent("web")
		logger.SetLevel(LevelWarn)
		defer logger.SetLevel(LevelDebug)

		buf.Reset()
		child.Info("hidden")
		assert.Zero(t, buf.Len())
	})
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	assert.Equal(t, LevelError, l.GetLevel())
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: LevelInfo, Output: &buf}).Info("hello", "iface", "eth0")
	assert.True(t, strings.Contains(buf.String(), "iface=eth0"))
}
