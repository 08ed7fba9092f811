package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		logger, err := New(level, "json")
		require.NoError(t, err, "level %q", level)
		require.NotNil(t, logger)
	}

	logger, err := New("info", "console")
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = New("verbose", "json")
	assert.Error(t, err)
}
