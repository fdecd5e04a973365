package query

import (
	"regexp"
	"strconv"
	"strings"
)

var durationLimitRe = regexp.MustCompile(`(?:max duration|less than|within|under)\s*(?:of)?\s*(\d+)`)

// ParseDurationLimit returns the first number that directly follows a limiting
// phrase such as "under" or "max duration of". The second value is false when
// no such phrase with a number exists.
func ParseDurationLimit(query string) (int, bool) {
	match := durationLimitRe.FindStringSubmatch(strings.ToLower(query))
	if match == nil {
		return 0, false
	}
	limit, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return limit, true
}
