package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	meridiemPattern = regexp.MustCompile(`\s*[AaPp][Mm]\s*`)
	pmPattern       = regexp.MustCompile(`[Pp][Mm]`)
	amPattern       = regexp.MustCompile(`[Aa][Mm]`)
)

// parseTimestamp combines a date token and a time token from a matched
// line into an absolute instant in the implicit local zone. Dates split
// on "/": a leading component of at most two digits means day-first
// (the export convention), otherwise year-first; two-digit years are
// expanded by adding 2000. Malformed numeric fragments degrade to zero
// components rather than failing; an odd resulting date is acceptable,
// aborting the parse is not.
func parseTimestamp(dateStr, timeStr string) time.Time {
	parts := strings.Split(dateStr, "/")
	for len(parts) < 3 {
		parts = append(parts, "")
	}

	var day, month, year int
	if len(parts[0]) <= 2 {
		day, month, year = atoi(parts[0]), atoi(parts[1]), atoi(parts[2])
	} else {
		year, month, day = atoi(parts[0]), atoi(parts[1]), atoi(parts[2])
	}
	if year < 100 {
		year += 2000
	}

	clock := strings.TrimSpace(timeStr)
	isPM := pmPattern.MatchString(clock)
	isAM := amPattern.MatchString(clock)
	clock = meridiemPattern.ReplaceAllString(clock, "")

	var hour, minute, second int
	timeParts := strings.Split(clock, ":")
	if len(timeParts) > 0 {
		hour = atoi(timeParts[0])
	}
	if len(timeParts) > 1 {
		minute = atoi(timeParts[1])
	}
	if len(timeParts) > 2 {
		second = atoi(timeParts[2])
	}

	if isPM && hour < 12 {
		hour += 12
	}
	if isAM && hour == 12 {
		hour = 0
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
}

// atoi is a forgiving strconv.Atoi: malformed input becomes 0 so a bad
// timestamp component never aborts the surrounding parse.
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
