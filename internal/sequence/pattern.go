package sequence

import (
	"fmt"
	"strings"
)

const minPad = 4

// Format substitutes the year and zero-padded counter placeholders in a
// pattern. `{YYYY}` becomes the four-digit year; a run of `#` inside braces
// becomes the counter padded to at least that many digits (minimum 4).
// A pattern with no counter placeholder gets the padded counter appended so
// a misconfigured pattern can never produce colliding constants.
func Format(pattern string, year int, n int64) string {
	out := strings.ReplaceAll(pattern, "{YYYY}", fmt.Sprintf("%04d", year))

	start := strings.Index(out, "{#")
	if start < 0 {
		return out + fmt.Sprintf("%0*d", minPad, n)
	}
	end := strings.Index(out[start:], "}")
	if end < 0 {
		return out + fmt.Sprintf("%0*d", minPad, n)
	}
	end += start

	pad := strings.Count(out[start:end], "#")
	if pad < minPad {
		pad = minPad
	}
	return out[:start] + fmt.Sprintf("%0*d", pad, n) + out[end+1:]
}
