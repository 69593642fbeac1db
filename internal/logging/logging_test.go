package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	Init(true, &buf)

	logger, id := WithRun(WithComponent("pipeline"))
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	logger.Debug().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, id, entry["run"])
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, "debug", entry["level"])
}

func TestInitLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(false, &buf)

	hidden := WithComponent("test")
	hidden.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	shown := WithComponent("test")
	shown.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
