package parser

import "regexp"

// tagRules is the declarative keyword classifier: one {tag, pattern}
// row per topical tag, applied in order to every content fragment.
// Three families: rhythm names, activity/event types, instrument names.
// Best-effort keyword matching, deterministic by construction.
var tagRules = []struct {
	tag     string
	pattern *regexp.Regexp
}{
	// Rhythms
	{"avenida", regexp.MustCompile(`(?i)avenida`)},
	{"merengue", regexp.MustCompile(`(?i)merengue`)},
	{"reggae", regexp.MustCompile(`(?i)reggae`)},
	{"afro", regexp.MustCompile(`(?i)afro`)},
	{"swing", regexp.MustCompile(`(?i)swing`)},
	{"samba", regexp.MustCompile(`(?i)samba`)},
	{"funk", regexp.MustCompile(`(?i)funk`)},

	// Activity / event types
	{"rehearsal", regexp.MustCompile(`(?i)ensayo|rehearsal|clase|class`)},
	{"gig", regexp.MustCompile(`(?i)actuaci[oó]n|performance|concierto|concert|pasacalle`)},
	{"tutorial", regexp.MustCompile(`(?i)tutorial|pr[aá]ctica|practice`)},

	// Instruments
	{"repinique", regexp.MustCompile(`(?i)repinique|repi`)},
	{"surdo", regexp.MustCompile(`(?i)surdo`)},
	{"caja", regexp.MustCompile(`(?i)caja|snare`)},
	{"agogo", regexp.MustCompile(`(?i)agog[oô]`)},
	{"tamborim", regexp.MustCompile(`(?i)tamborim`)},
	{"chocalho", regexp.MustCompile(`(?i)chocalho|shaker`)},
}

// detectTags returns the tags whose pattern matches anywhere in the
// fragment, in rule order. Deduplication across fragments of the same
// message happens in the accumulator.
func detectTags(fragment string) []string {
	var tags []string
	for _, rule := range tagRules {
		if rule.pattern.MatchString(fragment) {
			tags = append(tags, rule.tag)
		}
	}
	return tags
}
