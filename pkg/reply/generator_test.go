package reply

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replybot/pkg/config"
	"replybot/pkg/llm"
	"replybot/pkg/llm/llmerrors"
)

func genConfig() config.GenerationConfig {
	return config.GenerationConfig{
		Model:       config.ModelGPT4o,
		MaxAttempts: config.DefaultMaxAttempts,
		MinChars:    config.DefaultMinChars,
		MaxChars:    config.DefaultMaxChars,
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

func validReply() string {
	return strings.Repeat("Спасибо! ", 10) // 90 runes, comfortably in window
}

func TestGenerateReturnsFirstValidAttempt(t *testing.T) {
	mock := llm.NewMockClient([]llm.CompletionResponse{{Content: validReply()}}, nil)
	gen := NewGenerator(mock, genConfig(), nil)

	text := gen.Generate(context.Background(), "prompt")

	assert.Equal(t, strings.TrimSpace(validReply()), text)
	assert.Len(t, mock.Requests, 1, "early success must not consume attempts")
}

func TestGenerateCollapsesLineBreaks(t *testing.T) {
	multiline := "Спасибо за отзыв!\nМы очень рады.\r\nЗаходите ещё,\rбудем ждать вас снова!"
	mock := llm.NewMockClient([]llm.CompletionResponse{{Content: multiline}}, nil)
	gen := NewGenerator(mock, genConfig(), nil)

	text := gen.Generate(context.Background(), "prompt")

	assert.NotContains(t, text, "\n")
	assert.NotContains(t, text, "\r")
	assert.Contains(t, text, "Спасибо за отзыв! Мы очень рады.")
	assert.Contains(t, text, "Заходите ещё, будем ждать вас снова!")
}

func TestGenerateRetriesTooShort(t *testing.T) {
	mock := llm.NewMockClient([]llm.CompletionResponse{
		{Content: "коротко"},
		{Content: validReply()},
	}, nil)
	gen := NewGenerator(mock, genConfig(), nil)

	text := gen.Generate(context.Background(), "prompt")

	assert.GreaterOrEqual(t, utf8.RuneCountInString(text), config.DefaultMinChars)
	assert.Len(t, mock.Requests, 2)
}

func TestGenerateRetriesBackendErrors(t *testing.T) {
	mock := llm.NewMockClient(
		[]llm.CompletionResponse{{Content: validReply()}},
		[]error{
			llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "429"),
			llmerrors.NewError(llmerrors.ErrorTypeTransient, "503"),
		},
	)
	gen := NewGenerator(mock, genConfig(), nil)

	text := gen.Generate(context.Background(), "prompt")

	assert.NotEqual(t, FallbackReply, text)
	assert.Len(t, mock.Requests, 3)
}

func TestGenerateNonRetryableErrorFallsBackImmediately(t *testing.T) {
	mock := llm.NewMockClient(
		[]llm.CompletionResponse{{Content: validReply()}},
		[]error{llmerrors.NewError(llmerrors.ErrorTypeAuth, "invalid api key")},
	)
	gen := NewGenerator(mock, genConfig(), nil)

	text := gen.Generate(context.Background(), "prompt")

	assert.Equal(t, FallbackReply, text)
	assert.Len(t, mock.Requests, 1, "a bad credential cannot succeed on retry")
}

func TestGenerateFallbackAfterExhaustion(t *testing.T) {
	errs := make([]error, config.DefaultMaxAttempts)
	for i := range errs {
		errs[i] = llmerrors.NewError(llmerrors.ErrorTypeTransient, "boom")
	}
	mock := llm.NewMockClient(nil, errs)
	gen := NewGenerator(mock, genConfig(), nil)

	text := gen.Generate(context.Background(), "prompt")

	assert.Equal(t, FallbackReply, text)
	assert.Len(t, mock.Requests, config.DefaultMaxAttempts)
}

func TestGenerateFallbackAfterOnlyShortOutputs(t *testing.T) {
	responses := make([]llm.CompletionResponse, config.DefaultMaxAttempts)
	for i := range responses {
		responses[i] = llm.CompletionResponse{Content: "мало"}
	}
	mock := llm.NewMockClient(responses, nil)
	gen := NewGenerator(mock, genConfig(), nil)

	assert.Equal(t, FallbackReply, gen.Generate(context.Background(), "prompt"))
}

func TestGenerateTruncatesLongOutput(t *testing.T) {
	long := strings.Repeat("a", 2000)
	mock := llm.NewMockClient([]llm.CompletionResponse{{Content: long}}, nil)
	gen := NewGenerator(mock, genConfig(), nil)

	text := gen.Generate(context.Background(), "prompt")

	require.True(t, strings.HasSuffix(text, "..."))
	assert.Equal(t, config.DefaultMaxChars, utf8.RuneCountInString(text))
}

func TestGenerateLengthWindow(t *testing.T) {
	// Output stays within [50, 700] runes for any accepted result.
	exact := strings.Repeat("б", config.DefaultMaxChars)
	mock := llm.NewMockClient([]llm.CompletionResponse{{Content: exact}}, nil)
	gen := NewGenerator(mock, genConfig(), nil)

	text := gen.Generate(context.Background(), "prompt")
	length := utf8.RuneCountInString(text)
	assert.GreaterOrEqual(t, length, config.DefaultMinChars)
	assert.LessOrEqual(t, length, config.DefaultMaxChars)
	assert.Equal(t, exact, text, "exactly at the limit passes untouched")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 700))

	long := strings.Repeat("x", 800)
	got := Truncate(long, 700)
	assert.Equal(t, 700, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))

	// Trailing whitespace at the cut point is trimmed before the ellipsis.
	spaced := strings.Repeat("y", 695) + "  " + strings.Repeat("z", 100)
	got = Truncate(spaced, 700)
	assert.True(t, strings.HasSuffix(got, "y..."))
}
