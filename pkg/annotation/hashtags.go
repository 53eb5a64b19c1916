package annotation

import (
	"fmt"
	"strings"
)

// ParseHashtags parses a Python-style list literal such as
// ['#hockey', '#goal'] or ["#win"] into its elements.
// The annotation pipeline that produces our JSON stores hashtags in this form.
func ParseHashtags(literal string) ([]string, error) {
	s := strings.TrimSpace(literal)
	if s == "" {
		return nil, nil
	}
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("Invalid hashtag list '%v': expected [...]", literal)
	}
	s = s[1 : len(s)-1]

	var tags []string
	i := 0
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', ',':
			i++
		case '\'', '"':
			quote := s[i]
			i++
			start := i
			for i < len(s) && s[i] != quote {
				if s[i] == '\\' && i+1 < len(s) {
					i++
				}
				i++
			}
			if i >= len(s) {
				return nil, fmt.Errorf("Invalid hashtag list '%v': unterminated string", literal)
			}
			tag := strings.ReplaceAll(s[start:i], "\\"+string(quote), string(quote))
			tags = append(tags, tag)
			i++
		default:
			return nil, fmt.Errorf("Invalid hashtag list '%v': unexpected character '%c'", literal, s[i])
		}
	}
	return tags, nil
}
