package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"replybot/pkg/market"
)

func starsReview(stars int, hasReply bool) *market.Review {
	return &market.Review{Stars: &stars, HasReply: hasReply}
}

func TestDecideReplyAtOrAboveFloor(t *testing.T) {
	for stars := 1; stars <= 5; stars++ {
		decision := Decide(starsReview(stars, false), 1)
		assert.Equal(t, ActionReply, decision.Action, "stars=%d", stars)
		assert.Equal(t, stars, decision.Rating)
	}
}

func TestDecideExactlyAtFloorReplies(t *testing.T) {
	// A rating that climbed back to the floor goes straight to Reply;
	// the posted reply overwrites any stale one by order id.
	decision := Decide(starsReview(3, true), 3)
	assert.Equal(t, ActionReply, decision.Action)
	assert.Equal(t, 3, decision.Rating)
}

func TestDecideRetractBelowFloorWithReply(t *testing.T) {
	decision := Decide(starsReview(1, true), 3)
	assert.Equal(t, ActionRetract, decision.Action)
	assert.Equal(t, 1, decision.Rating)
}

func TestDecideNoOpBelowFloorWithoutReply(t *testing.T) {
	decision := Decide(starsReview(2, false), 3)
	assert.Equal(t, ActionNoOp, decision.Action)
	assert.NotEmpty(t, decision.Reason)
}

func TestDecideAbsentStarsNeverReplies(t *testing.T) {
	// Absent or unparsable stars count as 0: NoOp or Retract, never Reply.
	decision := Decide(&market.Review{}, 1)
	assert.Equal(t, ActionNoOp, decision.Action)
	assert.Equal(t, 0, decision.Rating)

	decision = Decide(&market.Review{HasReply: true}, 1)
	assert.Equal(t, ActionRetract, decision.Action)
	assert.Equal(t, 0, decision.Rating)
}

func TestDecideNilReview(t *testing.T) {
	decision := Decide(nil, 1)
	assert.Equal(t, ActionNoOp, decision.Action)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "reply", ActionReply.String())
	assert.Equal(t, "retract", ActionRetract.String())
	assert.Equal(t, "noop", ActionNoOp.String())
}
