package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// Totals represents aggregated operational counters for the bot.
type Totals struct {
	RepliesSent     int64 `json:"replies_sent"`
	RepliesDeleted  int64 `json:"replies_deleted"`
	PromptTokens    int64 `json:"prompt_tokens"`
	CompletionToken int64 `json:"completion_tokens"`
}

// QueryService provides methods to query metrics back from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetTotals retrieves aggregated reply and token counters.
func (q *QueryService) GetTotals(ctx context.Context) (*Totals, error) {
	totals := &Totals{}

	queries := []struct {
		expr string
		dest *int64
	}{
		{fmt.Sprintf(`sum(replybot_events_total{outcome=%q})`, OutcomeReplied), &totals.RepliesSent},
		{fmt.Sprintf(`sum(replybot_events_total{outcome=%q})`, OutcomeRetracted), &totals.RepliesDeleted},
		{`sum(llm_tokens_total{type="prompt"})`, &totals.PromptTokens},
		{`sum(llm_tokens_total{type="completion"})`, &totals.CompletionToken},
	}

	for _, query := range queries {
		result, _, err := q.queryAPI.Query(ctx, query.expr, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", query.expr, err)
		}
		if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
			*query.dest = int64(vector[0].Value)
		}
	}

	return totals, nil
}
