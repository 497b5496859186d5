package llmerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := NewError(ErrorTypeRateLimit, "quota exceeded")
	assert.Equal(t, "rate_limit: quota exceeded", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, ErrorTypeRateLimit.IsRetryable())
	assert.True(t, ErrorTypeTransient.IsRetryable())
	assert.True(t, ErrorTypeEmptyResponse.IsRetryable())
	assert.True(t, ErrorTypeUnknown.IsRetryable())
	assert.False(t, ErrorTypeAuth.IsRetryable())
	assert.False(t, ErrorTypeBadPrompt.IsRetryable())
}

func TestTypeOfClassified(t *testing.T) {
	wrapped := fmt.Errorf("attempt failed: %w", NewError(ErrorTypeBadPrompt, "too long"))
	assert.Equal(t, ErrorTypeBadPrompt, TypeOf(wrapped))
}

func TestTypeOfStringFallback(t *testing.T) {
	cases := map[string]ErrorType{
		"got HTTP 429 from backend": ErrorTypeRateLimit,
		"connection reset by peer":  ErrorTypeTransient,
		"unexpected EOF":            ErrorTypeTransient,
		"server returned 503":       ErrorTypeTransient,
		"invalid api key":           ErrorTypeAuth,
		"something completely else": ErrorTypeUnknown,
	}
	for msg, want := range cases {
		assert.Equal(t, want, TypeOf(errors.New(msg)), msg)
	}
}
