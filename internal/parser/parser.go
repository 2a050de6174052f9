// Package parser converts raw WhatsApp chat export text into structured
// message records: normalized timestamps, sender attribution, media
// classification, topical tags, and importance flags.
package parser

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SystemSender is the sender recorded for log lines that carry no explicit
// human sender (group-administration notices and similar).
const SystemSender = "System"

// Message types. Media messages use the detected media kind as their type.
const (
	TypeText   = "text"
	TypeEmpty  = "empty"
	TypeSystem = "system"
)

// ErrNoMessages is returned to callers when an export contains no
// recognizable message-start lines.
var ErrNoMessages = errors.New("no messages recognized")

// Message is one logical chat entry, possibly spanning several physical
// lines of the export.
type Message struct {
	ID            string    `json:"id"`
	Sender        string    `json:"sender"`
	Content       string    `json:"content"`
	Timestamp     time.Time `json:"timestamp"`
	Type          string    `json:"message_type"`
	HasMedia      bool      `json:"has_media"`
	MediaFilename string    `json:"media_filename,omitempty"`
	MediaType     string    `json:"media_type,omitempty"`
	IsImportant   bool      `json:"is_important"`
	HasEmoji      bool      `json:"has_emoji"`
	Tags          []string  `json:"tags"`
}

// DateRange is the [earliest, latest] timestamp span of an export.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Stats summarizes one parsed export.
type Stats struct {
	TotalMessages     int        `json:"totalMessages"`
	TextMessages      int        `json:"textMessages"`
	MediaMessages     int        `json:"mediaMessages"`
	SystemMessages    int        `json:"systemMessages"`
	ImportantMessages int        `json:"importantMessages"`
	DateRange         *DateRange `json:"dateRange"`
}

// Result is the output of parsing one export: the ordered message
// sequence, the sorted distinct sender list (system sender excluded),
// and summary counters.
type Result struct {
	Messages []Message `json:"messages"`
	Senders  []string  `json:"senders"`
	Stats    Stats     `json:"stats"`
}

// accumulator carries the single in-progress message across the line
// fold. Tag membership is tracked alongside the ordered tag slice so
// continuation lines never introduce duplicates.
type accumulator struct {
	msg     Message
	tagSeen map[string]bool
}

func newAccumulator(msg Message) *accumulator {
	acc := &accumulator{msg: msg, tagSeen: make(map[string]bool, len(msg.Tags))}
	for _, t := range msg.Tags {
		acc.tagSeen[t] = true
	}
	return acc
}

// extend appends a continuation line verbatim and re-runs the fragment
// classifiers. Importance and emoji flags are sticky; tags accumulate
// as a set.
func (acc *accumulator) extend(line string) {
	acc.msg.Content += "\n" + line
	for _, tag := range detectTags(line) {
		if !acc.tagSeen[tag] {
			acc.tagSeen[tag] = true
			acc.msg.Tags = append(acc.msg.Tags, tag)
		}
	}
	if isImportant(line) {
		acc.msg.IsImportant = true
	}
	if hasEmoji(line) {
		acc.msg.HasEmoji = true
	}
}

// Parse processes the full raw text of one export in a single forward
// pass. It never fails on malformed lines: unparseable timestamps yield
// best-effort zero-value components and unmatched lines either continue
// the open message or are dropped. A result with zero messages means the
// input is not a recognizable export; rejecting it is the caller's call.
func Parse(text string) *Result {
	senders := make(map[string]bool)
	res := &Result{}

	var open *accumulator
	flush := func() {
		if open != nil {
			res.Messages = append(res.Messages, open.msg)
			open = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSuffix(raw, "\r")

		m, ok := classifyLine(line)
		switch {
		case ok && !m.system:
			flush()
			msg := newUserMessage(m)
			senders[msg.Sender] = true
			open = newAccumulator(msg)

		case ok && m.system:
			flush()
			open = newAccumulator(newSystemMessage(m))

		case open != nil && strings.TrimSpace(line) != "":
			open.extend(line)

		default:
			// Blank line, or a continuation with no open message: dropped.
		}
	}
	flush()

	for s := range senders {
		res.Senders = append(res.Senders, s)
	}
	sort.Strings(res.Senders)

	res.Stats = summarize(res.Messages)
	return res
}

func newUserMessage(m lineMatch) Message {
	content := strings.TrimSpace(m.content)
	hasMedia, mediaType, mediaFilename := detectMedia(content)

	msgType := TypeText
	switch {
	case hasMedia:
		msgType = mediaType
	case content == "":
		msgType = TypeEmpty
	}

	return Message{
		ID:            uuid.NewString(),
		Sender:        strings.TrimSpace(m.sender),
		Content:       content,
		Timestamp:     parseTimestamp(m.date, m.clock),
		Type:          msgType,
		HasMedia:      hasMedia,
		MediaFilename: mediaFilename,
		MediaType:     mediaType,
		IsImportant:   isImportant(content),
		HasEmoji:      hasEmoji(content),
		Tags:          detectTags(content),
	}
}

func newSystemMessage(m lineMatch) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    SystemSender,
		Content:   strings.TrimSpace(m.content),
		Timestamp: parseTimestamp(m.date, m.clock),
		Type:      TypeSystem,
	}
}

func summarize(messages []Message) Stats {
	stats := Stats{TotalMessages: len(messages)}
	for _, m := range messages {
		switch {
		case m.Type == TypeText:
			stats.TextMessages++
		case m.Type == TypeSystem:
			stats.SystemMessages++
		}
		if m.HasMedia {
			stats.MediaMessages++
		}
		if m.IsImportant {
			stats.ImportantMessages++
		}

		if stats.DateRange == nil {
			stats.DateRange = &DateRange{Start: m.Timestamp, End: m.Timestamp}
			continue
		}
		if m.Timestamp.Before(stats.DateRange.Start) {
			stats.DateRange.Start = m.Timestamp
		}
		if m.Timestamp.After(stats.DateRange.End) {
			stats.DateRange.End = m.Timestamp
		}
	}
	return stats
}
