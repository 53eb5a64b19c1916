package caption

import (
	"strings"
	"unicode"
)

// FormatSentence normalizes the case and punctuation of a prompt or
// description: the first letter is capitalized, and a terminating "." is
// appended (or "?" if isQuestion).
func FormatSentence(text string, isQuestion bool) string {
	if text == "" {
		return text
	}
	runes := []rune(text)
	if unicode.IsLower(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		text = string(runes)
	}
	if isQuestion {
		if !strings.HasSuffix(text, "?") {
			text += "?"
		}
	} else if !strings.HasSuffix(text, ".") {
		text += "."
	}
	return text
}
