package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2HalfUp(t *testing.T) {
	cases := map[string]string{
		"2.625":   "2.63",
		"2.624":   "2.62",
		"2.615":   "2.62",
		"0.005":   "0.01",
		"1020":    "1020",
		"81.4949": "81.49",
	}
	for in, want := range cases {
		assert.True(t, Round2(dec(in)).Equal(dec(want)), "round2(%s)", in)
	}
}

func TestRound2Idempotent(t *testing.T) {
	v := Round2(dec("1234.565"))
	assert.True(t, Round2(v).Equal(v))
}
