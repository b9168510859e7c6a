package render

import "unicode/utf8"

const (
	maxFontSize  = 110
	minFontSize  = 55
	fontSizeStep = 25
)

// AdaptiveFontSize shrinks vertical text that would overflow its column.
// Names fit three characters at full size; amounts fit three, or two when
// an item description shares the column.
func AdaptiveFontSize(text string, isName, hasItem bool) int {
	limit := 3
	if !isName && hasItem {
		limit = 2
	}
	n := utf8.RuneCountInString(text)
	if n <= limit {
		return maxFontSize
	}
	return max(minFontSize, maxFontSize-(n-limit)*fontSizeStep)
}
