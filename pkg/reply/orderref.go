// Package reply implements the review moderation and response pipeline:
// order-reference extraction, prompt building, bounded-retry generation,
// the moderation policy, and the event orchestrator.
package reply

import "regexp"

// Order references are embedded in message text as #<alphanumeric-run>.
// The first match wins.
var orderIDRegex = regexp.MustCompile(`#([A-Za-z0-9]+)`)

// ExtractOrderID returns the first order reference found in text.
func ExtractOrderID(text string) (string, bool) {
	match := orderIDRegex.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return match[1], true
}
