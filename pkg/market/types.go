// Package market provides the marketplace session: order and review types,
// an HTTP client authenticated by the golden-key token, and the polling
// runner that turns inbound messages into events.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MessageType tags an inbound marketplace message.
type MessageType string

const (
	MessageTypeNewFeedback     MessageType = "NEW_FEEDBACK"
	MessageTypeFeedbackChanged MessageType = "FEEDBACK_CHANGED"
	MessageTypeFeedbackDeleted MessageType = "FEEDBACK_DELETED"
	MessageTypeOrderPurchased  MessageType = "ORDER_PURCHASED"
	MessageTypeChat            MessageType = "CHAT"
)

// ErrOrderNotFound is returned by Session.GetOrder for unknown references.
var ErrOrderNotFound = errors.New("order not found")

// Message is one inbound message from the marketplace update feed.
type Message struct {
	ID     int64       `json:"id"`
	Type   MessageType `json:"type"`
	Author string      `json:"author,omitempty"`
	Text   string      `json:"text"`
}

// String returns the textual representation searched for order references.
func (m Message) String() string {
	return m.Text
}

// Review is a buyer-submitted rating with optional text and an optional
// existing seller reply. Absent or unparsable fields stay at their zero
// values; defaults are applied here at parse time, not at read sites.
type Review struct {
	Stars    *int   `json:"stars,omitempty"` // nil when absent or unparsable
	Text     string `json:"text,omitempty"`
	HasReply bool   `json:"has_reply"`
}

// reviewWire tolerates the feed sending stars as a number, a numeric string,
// or garbage.
type reviewWire struct {
	Stars    json.RawMessage `json:"stars"`
	Text     string          `json:"text"`
	HasReply bool            `json:"has_reply"`
}

// UnmarshalJSON parses a review, leaving Stars nil for anything that is not
// an integer in [0,5].
func (r *Review) UnmarshalJSON(data []byte) error {
	var wire reviewWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to parse review: %w", err)
	}

	r.Text = wire.Text
	r.HasReply = wire.HasReply
	r.Stars = parseStars(wire.Stars)
	return nil
}

func parseStars(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}

	text := strings.TrimSpace(string(raw))
	text = strings.Trim(text, `"`)
	if text == "" || text == "null" {
		return nil
	}

	stars, err := strconv.Atoi(text)
	if err != nil || stars < 0 || stars > 5 {
		return nil
	}
	return &stars
}

// EffectiveStars returns the rating, or 0 when the review or its rating is
// absent.
func (r *Review) EffectiveStars() int {
	if r == nil || r.Stars == nil {
		return 0
	}
	return *r.Stars
}

// Order is an externally-owned entity fetched by reference. Snapshots are
// read-only; each event triggers a fresh fetch.
type Order struct {
	ID     string  `json:"id"`
	Buyer  string  `json:"buyer,omitempty"`
	Title  string  `json:"title,omitempty"`
	Review *Review `json:"review,omitempty"`
}

// Session is the marketplace API surface the reply pipeline depends on.
// All three operations can fail; callers catch failures locally.
type Session interface {
	// GetOrder fetches an order snapshot by reference.
	// Returns ErrOrderNotFound for unknown references.
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// SendReview posts or updates the seller reply on the order's review.
	// Update-by-order-id semantics: a second call overwrites, never duplicates.
	SendReview(ctx context.Context, orderID, text string, rating int) error

	// DeleteReview retracts the seller reply on the order's review.
	DeleteReview(ctx context.Context, orderID string) error
}
