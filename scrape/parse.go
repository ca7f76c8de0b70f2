package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

// UnknownLastOnlineDays is the sentinel for recency phrases that do not match
// any known format.
const UnknownLastOnlineDays = 999

var dayRe = regexp.MustCompile(`(\d+)\s*day`)

// ParseLastOnlineDays converts a relative recency phrase into a number of
// days. Phrases indicating less than a day resolve to 0.
func ParseLastOnlineDays(text string) int {
	t := strings.ToLower(text)
	if strings.Contains(t, "second") ||
		strings.Contains(t, "minute") ||
		strings.Contains(t, "hour") ||
		strings.Contains(t, "just now") {
		return 0
	}
	if m := dayRe.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return UnknownLastOnlineDays
}

// parseCount parses an integer that may use comma grouping. Unparseable input
// yields 0.
func parseCount(text string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(text), ",", ""))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
