package ot

import (
	"math/rand"
	"strings"
)

// randomString generates a random ASCII-ish document of n code units,
// occasionally throwing in a newline — the same generator shape as
// ot.js's test/helpers.js randomString, adapted for this package.
func randomString(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if rand.Float64() < 0.15 {
			b.WriteRune('\n')
		} else {
			b.WriteRune('a' + rune(rand.Intn(26)))
		}
	}
	return b.String()
}

// randomOperation builds a random well-formed Operation whose BaseLength
// matches len(str), mirroring ot.js's test/helpers.js randomOperation:
// walk the string, and at each position randomly retain, insert, or
// delete.
func randomOperation(str string) *Operation {
	b := NewBuilder()
	left := utf16Len(str)

	for left > 0 {
		maxLen := left
		if maxLen > 10 {
			maxLen = 10
		}
		n := 1 + rand.Intn(maxLen)

		switch r := rand.Float64(); {
		case r < 0.2:
			b.Insert(randomString(1 + rand.Intn(10)))
		case r < 0.6:
			b.Retain(n)
			left -= n
		default:
			b.Delete(n)
			left -= n
		}
	}
	if rand.Float64() < 0.4 {
		b.Insert(randomString(1 + rand.Intn(10)))
	}
	return b.Build()
}
