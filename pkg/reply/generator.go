package reply

import (
	"context"
	"strings"
	"unicode/utf8"

	"replybot/pkg/config"
	"replybot/pkg/llm"
	"replybot/pkg/llm/llmerrors"
	"replybot/pkg/logx"
	"replybot/pkg/metrics"
	"replybot/pkg/utils"
)

// FallbackReply is returned after exhausting all attempts. It is the sole
// non-exceptional terminal state: the caller always gets a postable string.
const FallbackReply = "Спасибо за отзыв! 😊"

// Generation attempt result labels for metrics.
const (
	attemptOK           = "ok"
	attemptTooShort     = "too_short"
	attemptBackendError = "backend_error"
)

// Generator produces reply text with bounded retries and length validation.
// Generate is total: it never returns an error, masking backend flakiness
// behind the attempt budget and the fallback.
type Generator struct {
	client   llm.Client
	cfg      config.GenerationConfig
	recorder *metrics.Recorder
	counter  *utils.TokenCounter
	logger   *logx.Logger
}

// NewGenerator creates a generator over client. recorder may be nil.
func NewGenerator(client llm.Client, cfg config.GenerationConfig, recorder *metrics.Recorder) *Generator {
	counter, err := utils.NewTokenCounter(cfg.Model)
	if err != nil {
		// Counter falls back to character estimation internally.
		counter = &utils.TokenCounter{}
	}
	return &Generator{
		client:   client,
		cfg:      cfg,
		recorder: recorder,
		counter:  counter,
		logger:   logx.NewLogger("generator"),
	}
}

// Generate runs up to MaxAttempts completions and returns the first one that
// passes validation, truncated to the upper bound if needed. Early success
// does not consume remaining attempts.
func (g *Generator) Generate(ctx context.Context, prompt string) string {
	g.logger.Debug("Prompt: %d chars, ~%d tokens", utf8.RuneCountInString(prompt), g.counter.CountTokens(prompt))

	request := llm.NewUserRequest(prompt, g.cfg.MaxTokens, g.cfg.Temperature)

	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		resp, err := g.client.Complete(ctx, request)
		if err != nil {
			g.observeAttempt(attemptBackendError)
			if errType := llmerrors.TypeOf(err); !errType.IsRetryable() {
				g.logger.Warn("Generation failed with non-retryable %s error, using fallback reply: %v", errType, err)
				return g.fallback()
			}
			g.logger.Warn("Generation failed (attempt %d/%d): %v", attempt, g.cfg.MaxAttempts, err)
			continue
		}

		text := collapseLines(resp.Content)
		length := utf8.RuneCountInString(text)

		if length < g.cfg.MinChars {
			g.logger.Warn("Reply too short (%d chars), attempt %d/%d", length, attempt, g.cfg.MaxAttempts)
			g.observeAttempt(attemptTooShort)
			continue
		}
		if length > g.cfg.MaxChars {
			text = Truncate(text, g.cfg.MaxChars)
		}

		g.observeAttempt(attemptOK)
		return text
	}

	g.logger.Warn("All %d attempts exhausted, using fallback reply", g.cfg.MaxAttempts)
	return g.fallback()
}

func (g *Generator) fallback() string {
	if g.recorder != nil {
		g.recorder.ObserveFallback()
	}
	return FallbackReply
}

func (g *Generator) observeAttempt(result string) {
	if g.recorder != nil {
		g.recorder.ObserveAttempt(result)
	}
}

// collapseLines joins the completion's lines into a single-line string and
// trims surrounding whitespace. Bare CR counts as a line break too.
func collapseLines(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.ReplaceAll(trimmed, "\r\n", "\n")
	trimmed = strings.ReplaceAll(trimmed, "\r", "\n")
	return strings.Join(strings.Split(trimmed, "\n"), " ")
}

// Truncate cuts text to at most limit runes by slicing at limit-3, trimming
// trailing whitespace, and appending an ellipsis.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := strings.TrimRight(string(runes[:limit-3]), " \t")
	return cut + "..."
}
