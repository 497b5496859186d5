package backend

import (
	"context"
	"time"

	"replybot/pkg/llm"
	"replybot/pkg/llm/llmerrors"
	"replybot/pkg/metrics"
	"replybot/pkg/utils"
)

// metricsClient wraps an llm.Client and records request counters, token
// estimates, and durations. Token counts are tiktoken estimates, not
// backend-reported usage.
type metricsClient struct {
	inner    llm.Client
	recorder *metrics.Recorder
}

func newMetricsClient(inner llm.Client, recorder *metrics.Recorder) llm.Client {
	return &metricsClient{
		inner:    inner,
		recorder: recorder,
	}
}

// Complete implements llm.Client.
func (m *metricsClient) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	start := time.Now()
	resp, err := m.inner.Complete(ctx, in)
	duration := time.Since(start)

	model := m.inner.GetModelName()
	if err != nil {
		m.recorder.ObserveRequest(model, 0, 0, false, llmerrors.TypeOf(err).String(), duration)
		return llm.CompletionResponse{}, err
	}

	promptTokens := 0
	for i := range in.Messages {
		promptTokens += utils.CountTokensSimple(in.Messages[i].Content)
	}
	completionTokens := utils.CountTokensSimple(resp.Content)

	m.recorder.ObserveRequest(model, promptTokens, completionTokens, true, "", duration)
	return resp, nil
}

// GetModelName implements llm.Client.
func (m *metricsClient) GetModelName() string {
	return m.inner.GetModelName()
}
