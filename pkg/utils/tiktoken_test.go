package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	tc, err := NewTokenCounter("gpt-4o")
	require.NoError(t, err)

	assert.Equal(t, 0, tc.CountTokens(""))
	assert.Greater(t, tc.CountTokens("Спасибо за отзыв!"), 0)

	long := strings.Repeat("hello world ", 100)
	short := "hello world"
	assert.Greater(t, tc.CountTokens(long), tc.CountTokens(short))
}

func TestCountTokensSimple(t *testing.T) {
	assert.Greater(t, CountTokensSimple("five stars, would buy again"), 0)
}
