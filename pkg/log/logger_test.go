package log_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opsline/engine/pkg/api"
	"github.com/opsline/engine/pkg/log"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, log.ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, log.ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, log.ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, log.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, log.ParseLevel("bogus"))
}

func TestAttrs(t *testing.T) {
	attr := log.RunID(api.RunID("run-1"))
	assert.Equal(t, "run_id", attr.Key)
	assert.Equal(t, "run-1", attr.Value.String())

	attr = log.Tool(api.ToolID("weather"))
	assert.Equal(t, "tool", attr.Key)
	assert.Equal(t, "weather", attr.Value.String())

	attr = log.StepIndex(3)
	assert.Equal(t, "step_index", attr.Key)
	assert.Equal(t, int64(3), attr.Value.Int64())

	attr = log.Error(assert.AnError)
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, assert.AnError.Error(), attr.Value.String())

	attr = log.Error(nil)
	assert.Equal(t, "", attr.Value.String())
}
