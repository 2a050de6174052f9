package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TagList stores a message's topical tags as a JSON array in a TEXT
// column so tag frequency can be computed with json_each.
type TagList []string

// Value implements driver.Valuer.
func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		t = TagList{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *TagList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = TagList{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), t)
	case []byte:
		return json.Unmarshal(v, t)
	default:
		return fmt.Errorf("unsupported tags column type %T", src)
	}
}

// Export represents one uploaded chat log and the summary of the
// message batch derived from it.
type Export struct {
	ID             string     `db:"id"               json:"id"`
	Filename       string     `db:"filename"         json:"filename"`
	UploadedAt     time.Time  `db:"uploaded_at"      json:"uploaded_at"`
	MessageCount   int        `db:"message_count"    json:"message_count"`
	DateRangeStart *time.Time `db:"date_range_start" json:"date_range_start"`
	DateRangeEnd   *time.Time `db:"date_range_end"   json:"date_range_end"`
}

// Message is the persisted form of one logical chat entry. ContentStems
// is the stemmed shadow of Content feeding the full-text index; it is
// never exposed through the API.
type Message struct {
	ID            string    `db:"id"             json:"id"`
	ExportID      string    `db:"export_id"      json:"export_id"`
	Sender        string    `db:"sender"         json:"sender"`
	Content       string    `db:"content"        json:"content"`
	ContentStems  string    `db:"content_stems"  json:"-"`
	Timestamp     time.Time `db:"timestamp"      json:"timestamp"`
	Type          string    `db:"message_type"   json:"message_type"`
	HasMedia      bool      `db:"has_media"      json:"has_media"`
	MediaFilename string    `db:"media_filename" json:"media_filename,omitempty"`
	MediaType     string    `db:"media_type"     json:"media_type,omitempty"`
	IsImportant   bool      `db:"is_important"   json:"is_important"`
	HasEmoji      bool      `db:"has_emoji"      json:"has_emoji"`
	Tags          TagList   `db:"tags"           json:"tags"`
}

// SenderSummary is one row of the per-sender roster view.
type SenderSummary struct {
	Sender       string    `db:"sender"        json:"sender"`
	MessageCount int       `db:"message_count" json:"message_count"`
	MediaCount   int       `db:"media_count"   json:"media_count"`
	FirstMessage time.Time `db:"first_message" json:"first_message"`
	LastMessage  time.Time `db:"last_message"  json:"last_message"`
}

// SenderCount is a generic sender/count aggregation row.
type SenderCount struct {
	Sender string `db:"sender" json:"sender"`
	Count  int    `db:"count"  json:"count"`
}

// TypeCount is a message-type histogram row.
type TypeCount struct {
	MessageType string `db:"message_type" json:"message_type"`
	Count       int    `db:"count"        json:"count"`
}

// TagCount is a tag-frequency row; each message contributes one count
// per distinct tag it holds.
type TagCount struct {
	Tag   string `db:"tag"   json:"tag"`
	Count int    `db:"count" json:"count"`
}

// DateCount is a daily message-count row (calendar date, local zone).
type DateCount struct {
	Date  string `db:"date"  json:"date"`
	Count int    `db:"count" json:"count"`
}

// HourCount is an hour-of-day histogram row.
type HourCount struct {
	Hour  int `db:"hour"  json:"hour"`
	Count int `db:"count" json:"count"`
}

// DayOfWeekCount is a day-of-week histogram row (0 = Sunday).
type DayOfWeekCount struct {
	DayOfWeek int `db:"dow"   json:"dow"`
	Count     int `db:"count" json:"count"`
}

// AvgLength is an average-message-length row, text messages only.
type AvgLength struct {
	Sender       string  `db:"sender"     json:"sender"`
	AvgLength    float64 `db:"avg_length" json:"avg_length"`
	MessageCount int     `db:"msg_count"  json:"msg_count"`
}

// Streak is a longest consecutive-day run for one sender.
type Streak struct {
	Sender     string `db:"sender"      json:"sender"`
	StreakDays int    `db:"streak_days" json:"streak_days"`
}

// Totals summarizes the whole corpus, system messages excluded.
type Totals struct {
	TotalMessages  int        `db:"total_messages"  json:"total_messages"`
	TotalMedia     int        `db:"total_media"     json:"total_media"`
	TotalImportant int        `db:"total_important" json:"total_important"`
	TotalSenders   int        `db:"total_senders"   json:"total_senders"`
	Earliest       *time.Time `db:"earliest"        json:"earliest"`
	Latest         *time.Time `db:"latest"          json:"latest"`
}

// DashboardStats bundles the read-only views behind the dashboard.
type DashboardStats struct {
	Totals          Totals        `json:"totals"`
	BySender        []SenderCount `json:"bySender"`
	ByType          []TypeCount   `json:"byType"`
	ByTag           []TagCount    `json:"byTag"`
	ByDate          []DateCount   `json:"byDate"`
	RecentImportant []Message     `json:"recentImportant"`
}

// FunStats bundles the social statistics views.
type FunStats struct {
	Chattiest       []SenderCount    `json:"chattiest"`
	Quietest        []SenderCount    `json:"quietest"`
	NightOwls       []SenderCount    `json:"nightOwls"`
	EarlyBirds      []SenderCount    `json:"earlyBirds"`
	MediaKings      []SenderCount    `json:"mediaKings"`
	LongestMessages []AvgLength      `json:"longestMessages"`
	EmojiLovers     []SenderCount    `json:"emojiLovers"`
	MostImportant   []SenderCount    `json:"mostImportant"`
	DayBreakdown    []DayOfWeekCount `json:"dayBreakdown"`
	HourBreakdown   []HourCount      `json:"hourBreakdown"`
	AvgPerDay       float64          `json:"avgPerDay"`
	Streaks         []Streak         `json:"streaks"`
}

// SearchResult is one relevance-ranked full-text search hit. Rank is
// the bm25 score (lower is better).
type SearchResult struct {
	Message
	Rank float64 `db:"rank" json:"rank"`
}
