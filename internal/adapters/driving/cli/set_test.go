package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldArgs(t *testing.T) {
	fields, err := parseFieldArgs([]string{"status=resolved", "priority=high"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"status":   "resolved",
		"priority": "high",
	}, fields)
}

func TestParseFieldArgsKeepsEqualsInValue(t *testing.T) {
	fields, err := parseFieldArgs([]string{"category=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "a=b", fields["category"])
}

func TestParseFieldArgsRejectsMalformed(t *testing.T) {
	_, err := parseFieldArgs([]string{"status"})
	assert.Error(t, err)

	_, err = parseFieldArgs([]string{"=resolved"})
	assert.Error(t, err)
}
