package editor

import (
	"github.com/clipperhouse/uax29/graphemes"

	"github.com/coreseekdev/texere/pkg/ot"
)

// graphemeLengthBefore returns the UTF-16 length of the grapheme cluster
// immediately preceding offsetUnits in doc. Used as deleteContentBackward's
// fallback when the native event's target-value diff doesn't conclusively
// size the deletion (e.g. a composing IME leaves the value length
// unchanged mid-composition), so backspace still consumes a whole
// surrogate pair or combining sequence rather than splitting it.
func graphemeLengthBefore(doc string, offsetUnits int) int {
	pos := 0
	last := 1
	segments := graphemes.SegmentAllString(doc)
	for _, cluster := range segments {
		clen := ot.UTF16Len(cluster)
		if pos+clen >= offsetUnits {
			return clen
		}
		pos += clen
		last = clen
	}
	return last
}

// graphemeLengthAfter is deleteContentBackward's mirror for
// deleteContentForward: the length of the cluster starting at offsetUnits.
func graphemeLengthAfter(doc string, offsetUnits int) int {
	pos := 0
	segments := graphemes.SegmentAllString(doc)
	for _, cluster := range segments {
		clen := ot.UTF16Len(cluster)
		if pos == offsetUnits {
			return clen
		}
		pos += clen
	}
	return 1
}
