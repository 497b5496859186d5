package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOrderID(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"simple", "Order #AB12 feedback received", "AB12", true},
		{"first match wins", "see #A1 and #B2", "A1", true},
		{"cyrillic context", "Покупатель оставил отзыв к заказу #XY9.", "XY9", true},
		{"no hash", "no reference here", "", false},
		{"bare hash", "dangling # only", "", false},
		{"digits only", "#123456", "123456", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found := ExtractOrderID(tc.text)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.want, got)
		})
	}
}
