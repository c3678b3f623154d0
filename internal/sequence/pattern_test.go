package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		pattern string
		year    int
		n       int64
		want    string
	}{
		{"Q{YYYY}-{####}", 2025, 7, "Q2025-0007"},
		{"Q{YYYY}-{####}", 2025, 12345, "Q2025-12345"},
		{"INV{YYYY}-{######}", 2025, 42, "INV2025-000042"},
		{"SO{YYYY}-{####}", 2026, 1, "SO2026-0001"},
		{"{####}/{YYYY}", 2025, 9, "0009/2025"},
		// Short placeholder still pads to the 4-digit minimum.
		{"Q{##}", 2025, 3, "Q0003"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Format(tc.pattern, tc.year, tc.n), "pattern=%s", tc.pattern)
	}
}

func TestFormatWithoutCounterPlaceholder(t *testing.T) {
	// A pattern missing the counter placeholder would mint the same constant
	// forever; the counter is appended instead.
	assert.Equal(t, "Q2025-0007", Format("Q{YYYY}-", 2025, 7))
	assert.Equal(t, "FIXED0001", Format("FIXED", 2025, 1))
}

func TestDefaultPatterns(t *testing.T) {
	assert.Equal(t, "Q{YYYY}-{####}", DefaultPattern(DocTypeQuote))
	assert.Equal(t, "SO{YYYY}-{####}", DefaultPattern(DocTypeOrder))
	assert.Equal(t, "INV{YYYY}-{####}", DefaultPattern(DocTypeInvoice))
}
