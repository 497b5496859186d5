package reply

import (
	"context"
	"errors"
	"time"

	"replybot/pkg/logx"
	"replybot/pkg/market"
	"replybot/pkg/metrics"
	"replybot/pkg/persistence"
)

// Orchestrator consumes inbound events and drives policy, generation, and
// the marketplace action. Handle never propagates failures: one event's
// failure must never stop the event loop.
type Orchestrator struct {
	session   market.Session
	generator *Generator
	prompts   *PromptBuilder
	ledger    *persistence.Store // may be nil
	recorder  *metrics.Recorder  // may be nil
	minRating int
	logger    *logx.Logger
	now       func() time.Time
}

// NewOrchestrator wires the pipeline. ledger and recorder are optional.
func NewOrchestrator(session market.Session, generator *Generator, prompts *PromptBuilder, ledger *persistence.Store, recorder *metrics.Recorder, minRating int) *Orchestrator {
	return &Orchestrator{
		session:   session,
		generator: generator,
		prompts:   prompts,
		ledger:    ledger,
		recorder:  recorder,
		minRating: minRating,
		logger:    logx.NewLogger("orchestrator"),
		now:       time.Now,
	}
}

// Handle processes one event end to end.
func (o *Orchestrator) Handle(ctx context.Context, event market.NewMessageEvent) {
	msg := event.Message

	// Hard filter: no side effects for non-feedback types.
	if msg.Type != market.MessageTypeNewFeedback && msg.Type != market.MessageTypeFeedbackChanged {
		return
	}

	if o.alreadyProcessed(ctx, event.ID) {
		o.logger.Debug("Event %s already processed, skipping", event.ID)
		return
	}

	outcome, orderID := o.process(ctx, msg)
	o.finish(ctx, event, orderID, outcome)
}

// process runs the pipeline and returns the outcome label plus the order id
// (empty when no reference was resolved).
func (o *Orchestrator) process(ctx context.Context, msg market.Message) (outcome, orderID string) {
	orderID, ok := ExtractOrderID(msg.String())
	if !ok {
		o.logger.Warn("No order reference in %s message", msg.Type)
		return metrics.OutcomeIgnored, ""
	}

	order, err := o.session.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, market.ErrOrderNotFound) {
			o.logger.Warn("Order %s not found", orderID)
			return metrics.OutcomeIgnored, orderID
		}
		o.logger.Error("Failed to fetch order %s: %v", orderID, err)
		return metrics.OutcomeFailed, orderID
	}
	if order.Review == nil {
		o.logger.Warn("Order %s has no review", orderID)
		return metrics.OutcomeIgnored, orderID
	}

	decision := Decide(order.Review, o.minRating)
	switch decision.Action {
	case ActionRetract:
		if err := o.session.DeleteReview(ctx, order.ID); err != nil {
			o.logger.Error("Failed to remove reply on order #%s: %v", order.ID, err)
			return metrics.OutcomeFailed, order.ID
		}
		o.logger.Info("Removed reply on order #%s (rating %d below floor %d)", order.ID, decision.Rating, o.minRating)
		return metrics.OutcomeRetracted, order.ID

	case ActionNoOp:
		o.logger.Info("No action for order #%s: %s", order.ID, decision.Reason)
		return metrics.OutcomeSkipped, order.ID

	case ActionReply:
		prompt := o.prompts.Build(order, o.now())
		text := o.generator.Generate(ctx, prompt)
		if err := o.session.SendReview(ctx, order.ID, text, decision.Rating); err != nil {
			o.logger.Error("Failed to send reply on order #%s (rating %d): %v", order.ID, decision.Rating, err)
			return metrics.OutcomeFailed, order.ID
		}
		o.logger.Info("Reply sent/updated on order #%s with rating %d", order.ID, decision.Rating)
		return metrics.OutcomeReplied, order.ID

	default:
		o.logger.Error("Unknown action %v for order #%s", decision.Action, order.ID)
		return metrics.OutcomeFailed, order.ID
	}
}

func (o *Orchestrator) alreadyProcessed(ctx context.Context, eventID string) bool {
	if o.ledger == nil {
		return false
	}
	processed, err := o.ledger.IsProcessed(ctx, eventID)
	if err != nil {
		// Ledger trouble must not block event handling.
		o.logger.Warn("Ledger check failed for event %s: %v", eventID, err)
		return false
	}
	return processed
}

func (o *Orchestrator) finish(ctx context.Context, event market.NewMessageEvent, orderID, outcome string) {
	if o.recorder != nil {
		o.recorder.ObserveEvent(string(event.Message.Type), outcome)
	}
	if o.ledger != nil {
		if err := o.ledger.MarkProcessed(ctx, event.ID, string(event.Message.Type), orderID, outcome); err != nil {
			o.logger.Warn("Failed to record event %s: %v", event.ID, err)
		}
	}
}
