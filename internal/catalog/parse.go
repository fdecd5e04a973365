package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

var digitsRe = regexp.MustCompile(`\d+`)

// ExtractMinutes returns the first run of digits in s. The second value is
// false when s holds no digits or the number does not fit an int.
func ExtractMinutes(s string) (int, bool) {
	match := digitsRe.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SplitTestTypes splits a comma separated label list into trimmed, non-empty tokens.
func SplitTestTypes(raw string) []string {
	tokens := strings.Split(raw, ",")
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		out = append(out, token)
	}
	return out
}

// Categorize derives the category bits from a raw test type string.
func Categorize(raw string) Category {
	lower := strings.ToLower(raw)
	var c Category
	if strings.Contains(lower, "knowledge") {
		c |= CategoryKnowledge
	}
	if strings.Contains(lower, "personality") {
		c |= CategoryPersonality
	}
	return c
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
