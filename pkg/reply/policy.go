package reply

import (
	"fmt"

	"replybot/pkg/market"
)

// Action is the moderation decision for one review.
type Action int8

const (
	// ActionNoOp means nothing to do: rating below the floor and no
	// existing reply to remove.
	ActionNoOp Action = iota
	// ActionReply means post or update the automated reply.
	ActionReply
	// ActionRetract means delete the existing reply.
	ActionRetract
)

// String returns the action name for logging.
func (a Action) String() string {
	switch a {
	case ActionNoOp:
		return "noop"
	case ActionReply:
		return "reply"
	case ActionRetract:
		return "retract"
	default:
		return "invalid"
	}
}

// Decision is the policy output. Rating is the effective rating that drove
// the decision; Reason explains NoOp outcomes for the log line.
type Decision struct {
	Action Action
	Rating int
	Reason string
}

// Decide applies the moderation rules in order, first match wins:
//
//  1. An absent or unparsable rating counts as 0.
//  2. Below the floor: retract an existing reply, otherwise nothing to do.
//  3. At or above the floor: reply with the effective rating. A rating that
//     climbed back to the floor takes this path directly; the posted reply
//     overwrites by order id, so no stale retract runs first.
func Decide(review *market.Review, minRating int) Decision {
	rating := review.EffectiveStars()

	if rating < minRating {
		if review != nil && review.HasReply {
			return Decision{Action: ActionRetract, Rating: rating}
		}
		return Decision{
			Action: ActionNoOp,
			Rating: rating,
			Reason: fmt.Sprintf("no reply to remove (rating %d < %d)", rating, minRating),
		}
	}

	return Decision{Action: ActionReply, Rating: rating}
}
