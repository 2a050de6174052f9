package parser

import "regexp"

// The two known user-message line conventions plus the looser system
// fallback, tried in fixed priority order. The dash form is the Android
// export layout, the bracketed form the iOS layout (which also tolerates
// an AM/PM suffix on the time).
var (
	dashPattern    = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}),?\s+(\d{1,2}:\d{2}(?::\d{2})?)\s*[-–]\s+([^:]+):\s*(.*)`)
	bracketPattern = regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}),?\s+(\d{1,2}:\d{2}(?::\d{2})?(?:\s*[APap][Mm])?)\]\s+([^:]+):\s*(.*)`)
	systemPattern  = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}),?\s+(\d{1,2}:\d{2}(?::\d{2})?)\s*[-–]\s+(.*)`)
)

// lineMatch is the structured result of a message-start line. For system
// lines sender is empty and system is true.
type lineMatch struct {
	date    string
	clock   string
	sender  string
	content string
	system  bool
}

// classifyLine decides whether a physical line starts a new message.
// User-message conventions take precedence; only when both fail may the
// line fall back to the senderless system convention. Any other line is
// a continuation (or noise) and reports ok=false.
func classifyLine(line string) (lineMatch, bool) {
	if g := dashPattern.FindStringSubmatch(line); g != nil {
		return lineMatch{date: g[1], clock: g[2], sender: g[3], content: g[4]}, true
	}
	if g := bracketPattern.FindStringSubmatch(line); g != nil {
		return lineMatch{date: g[1], clock: g[2], sender: g[3], content: g[4]}, true
	}
	if g := systemPattern.FindStringSubmatch(line); g != nil {
		return lineMatch{date: g[1], clock: g[2], content: g[3], system: true}, true
	}
	return lineMatch{}, false
}
