// Package parser_test tests the parser package.
package parser_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nmoralez/batuchat/internal/parser"
)

func TestParseDashFormat(t *testing.T) {
	t.Parallel()

	res := parser.Parse("15/3/26, 14:05 - Marta: Ensayo de avenida mañana!")

	if len(res.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(res.Messages))
	}
	msg := res.Messages[0]

	if msg.Sender != "Marta" {
		t.Errorf("expected sender Marta, got %q", msg.Sender)
	}
	if msg.Content != "Ensayo de avenida mañana!" {
		t.Errorf("unexpected content %q", msg.Content)
	}
	want := time.Date(2026, 3, 15, 14, 5, 0, 0, time.Local)
	if !msg.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, msg.Timestamp)
	}
	if msg.Type != parser.TypeText {
		t.Errorf("expected type text, got %q", msg.Type)
	}
	if !hasTag(msg.Tags, "rehearsal") || !hasTag(msg.Tags, "avenida") {
		t.Errorf("expected tags rehearsal and avenida, got %v", msg.Tags)
	}
	if msg.ID == "" {
		t.Error("expected a generated message ID")
	}
}

func TestParseBracketFormatWithMeridiem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		line     string
		wantHour int
		wantMin  int
	}{
		{"PM converts to 24h", "[15/3/26, 2:05:30 PM] Marta: hola", 14, 5},
		{"AM keeps morning hour", "[15/3/26, 9:05 AM] Marta: hola", 9, 5},
		{"12 AM is midnight", "[15/3/26, 12:30 AM] Marta: hola", 0, 30},
		{"12 PM is noon", "[15/3/26, 12:30 PM] Marta: hola", 12, 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := parser.Parse(tc.line)
			if len(res.Messages) != 1 {
				t.Fatalf("expected 1 message, got %d", len(res.Messages))
			}
			ts := res.Messages[0].Timestamp
			if ts.Hour() != tc.wantHour || ts.Minute() != tc.wantMin {
				t.Errorf("expected %02d:%02d, got %02d:%02d", tc.wantHour, tc.wantMin, ts.Hour(), ts.Minute())
			}
			if ts.Year() != 2026 || ts.Month() != time.March || ts.Day() != 15 {
				t.Errorf("unexpected date %v", ts)
			}
		})
	}
}

func TestParseDayFirstAndYearFirstDates(t *testing.T) {
	t.Parallel()

	// Day-first with two-digit year and four-digit year variants.
	res := parser.Parse(strings.Join([]string{
		"15/3/26, 10:00 - Marta: uno",
		"15/3/2026, 11:00 - Marta: dos",
	}, "\n"))

	if len(res.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(res.Messages))
	}
	for _, m := range res.Messages {
		if m.Timestamp.Year() != 2026 || m.Timestamp.Month() != time.March || m.Timestamp.Day() != 15 {
			t.Errorf("unexpected date %v for %q", m.Timestamp, m.Content)
		}
	}
}

func TestParseMediaMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		content      string
		wantType     string
		wantFilename string
	}{
		{"generic media omitted", "<Media omitted>", "media", ""},
		{"spanish image omitted", "<Imagen omitida>", "image", ""},
		{"spanish video omitted", "<Video omitido>", "video", ""},
		{"spanish audio omitted", "<Audio omitido>", "audio", ""},
		{"attached image placeholder", "IMG-20260315-WA0001.jpg (file attached)", "image", ""},
		{"bare image filename", "mirad foto_ensayo.png", "image", "foto_ensayo.png"},
		{"bare audio filename", "os paso pasacalle.mp3", "audio", "pasacalle.mp3"},
		{"bare document filename", "convocatoria.docx", "document", "convocatoria.docx"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := parser.Parse("15/3/26, 14:06 - Juan: " + tc.content)
			if len(res.Messages) != 1 {
				t.Fatalf("expected 1 message, got %d", len(res.Messages))
			}
			msg := res.Messages[0]

			if !msg.HasMedia {
				t.Fatal("expected media message")
			}
			if msg.MediaType != tc.wantType {
				t.Errorf("expected media type %q, got %q", tc.wantType, msg.MediaType)
			}
			if msg.Type != tc.wantType {
				t.Errorf("expected message type %q, got %q", tc.wantType, msg.Type)
			}
			if msg.MediaFilename != tc.wantFilename {
				t.Errorf("expected filename %q, got %q", tc.wantFilename, msg.MediaFilename)
			}
		})
	}
}

func TestParseSystemMessages(t *testing.T) {
	t.Parallel()

	res := parser.Parse(strings.Join([]string{
		"15/3/26, 14:00 - Marta added Juan",
		"15/3/26, 14:05 - Marta: hola a todos",
	}, "\n"))

	if len(res.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(res.Messages))
	}

	sys := res.Messages[0]
	if sys.Sender != parser.SystemSender {
		t.Errorf("expected system sender, got %q", sys.Sender)
	}
	if sys.Type != parser.TypeSystem {
		t.Errorf("expected system type, got %q", sys.Type)
	}
	if sys.Content != "Marta added Juan" {
		t.Errorf("unexpected system content %q", sys.Content)
	}

	// System sender never appears in the sender roster.
	for _, s := range res.Senders {
		if s == parser.SystemSender {
			t.Error("system sender leaked into sender list")
		}
	}
	if len(res.Senders) != 1 || res.Senders[0] != "Marta" {
		t.Errorf("unexpected senders %v", res.Senders)
	}
}

func TestParseMultilineContinuation(t *testing.T) {
	t.Parallel()

	res := parser.Parse(strings.Join([]string{
		"15/3/26, 14:05 - Marta: IMPORTANTE cambio de horario",
		"el ensayo pasa a las 19h",
		"traed las cajas",
		"15/3/26, 14:10 - Juan: ok!",
	}, "\n"))

	if len(res.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(res.Messages))
	}

	first := res.Messages[0]
	wantContent := "IMPORTANTE cambio de horario\nel ensayo pasa a las 19h\ntraed las cajas"
	if first.Content != wantContent {
		t.Errorf("unexpected joined content %q", first.Content)
	}
	if !first.IsImportant {
		t.Error("expected importance to stick across continuation lines")
	}
	// Continuation lines contribute tags too.
	if !hasTag(first.Tags, "rehearsal") || !hasTag(first.Tags, "caja") {
		t.Errorf("expected continuation tags, got %v", first.Tags)
	}
}

func TestParseImportanceSticky(t *testing.T) {
	t.Parallel()

	res := parser.Parse(strings.Join([]string{
		"15/3/26, 14:05 - Marta: la actuación sigue en pie",
		"urgente: confirmad asistencia",
	}, "\n"))

	if len(res.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(res.Messages))
	}
	if !res.Messages[0].IsImportant {
		t.Error("expected importance from continuation line")
	}
}

func TestParseEmojiDetection(t *testing.T) {
	t.Parallel()

	res := parser.Parse(strings.Join([]string{
		"15/3/26, 14:05 - Marta: vamos 🥁",
		"15/3/26, 14:06 - Juan: sin adornos",
	}, "\n"))

	if len(res.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(res.Messages))
	}
	if !res.Messages[0].HasEmoji {
		t.Error("expected emoji flag on first message")
	}
	if res.Messages[1].HasEmoji {
		t.Error("did not expect emoji flag on second message")
	}
}

func TestParseCRLFInput(t *testing.T) {
	t.Parallel()

	res := parser.Parse("15/3/26, 14:05 - Marta: hola\r\n15/3/26, 14:06 - Juan: que tal\r\n")

	if len(res.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(res.Messages))
	}
	if res.Messages[0].Content != "hola" {
		t.Errorf("carriage return leaked into content: %q", res.Messages[0].Content)
	}
}

func TestParseNoMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"plain text", "this is not a chat export\njust some notes"},
		{"blank lines only", "\n\n\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := parser.Parse(tc.input)
			if len(res.Messages) != 0 {
				t.Errorf("expected 0 messages, got %d", len(res.Messages))
			}
			if len(res.Senders) != 0 {
				t.Errorf("expected no senders, got %v", res.Senders)
			}
			if res.Stats.TotalMessages != 0 || res.Stats.DateRange != nil {
				t.Errorf("expected empty stats, got %+v", res.Stats)
			}
		})
	}
}

func TestParseStats(t *testing.T) {
	t.Parallel()

	res := parser.Parse(strings.Join([]string{
		"16/3/26, 10:00 - Marta: texto normal",
		"15/3/26, 14:06 - Juan: <Media omitted>",
		"17/3/26, 09:00 - Marta added Juan",
		"18/3/26, 20:00 - Juan: recordar la actuación",
	}, "\n"))

	stats := res.Stats
	if stats.TotalMessages != 4 {
		t.Errorf("expected 4 total, got %d", stats.TotalMessages)
	}
	if stats.TextMessages != 2 {
		t.Errorf("expected 2 text, got %d", stats.TextMessages)
	}
	if stats.MediaMessages != 1 {
		t.Errorf("expected 1 media, got %d", stats.MediaMessages)
	}
	if stats.SystemMessages != 1 {
		t.Errorf("expected 1 system, got %d", stats.SystemMessages)
	}
	if stats.ImportantMessages != 1 {
		t.Errorf("expected 1 important, got %d", stats.ImportantMessages)
	}

	// Date range covers min/max regardless of message order.
	if stats.DateRange == nil {
		t.Fatal("expected a date range")
	}
	if stats.DateRange.Start.Day() != 15 || stats.DateRange.End.Day() != 18 {
		t.Errorf("unexpected date range %v .. %v", stats.DateRange.Start, stats.DateRange.End)
	}
}

func TestParseDeterministicModuloIDs(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"15/3/26, 14:05 - Marta: Ensayo de avenida mañana!",
		"sin falta",
		"15/3/26, 14:06 - Juan: <Media omitted>",
		"15/3/26, 14:07 - Marta added Pedro",
	}, "\n")

	a := parser.Parse(input)
	b := parser.Parse(input)

	if len(a.Messages) != len(b.Messages) {
		t.Fatalf("message counts differ: %d vs %d", len(a.Messages), len(b.Messages))
	}
	for i := range a.Messages {
		ma, mb := a.Messages[i], b.Messages[i]
		ma.ID, mb.ID = "", ""
		if !reflect.DeepEqual(ma, mb) {
			t.Errorf("message %d differs between runs: %+v vs %+v", i, ma, mb)
		}
	}
	if !reflect.DeepEqual(a.Stats, b.Stats) {
		t.Error("stats differ between runs")
	}
}

func TestParseTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"rhythm and activity", "mañana tocamos merengue en el pasacalle", []string{"merengue", "gig"}},
		{"instrument aliases", "los repis y la caja al frente", []string{"repinique", "caja"}},
		{"accented activity", "gran actuación el sábado", []string{"gig"}},
		{"practice", "subid el tutorial de práctica", []string{"tutorial"}},
		{"no tags", "nos vemos luego", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := parser.Parse("15/3/26, 14:05 - Marta: " + tc.content)
			if len(res.Messages) != 1 {
				t.Fatalf("expected 1 message, got %d", len(res.Messages))
			}
			got := res.Messages[0].Tags
			for _, w := range tc.want {
				if !hasTag(got, w) {
					t.Errorf("expected tag %q in %v", w, got)
				}
			}
			if tc.want == nil && len(got) != 0 {
				t.Errorf("expected no tags, got %v", got)
			}
		})
	}
}

func TestParseEmptyContentMessage(t *testing.T) {
	t.Parallel()

	res := parser.Parse("15/3/26, 14:05 - Marta: ")
	if len(res.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(res.Messages))
	}
	if res.Messages[0].Type != parser.TypeEmpty {
		t.Errorf("expected empty type, got %q", res.Messages[0].Type)
	}
}

func TestParseSendersSortedAndUnique(t *testing.T) {
	t.Parallel()

	res := parser.Parse(strings.Join([]string{
		"15/3/26, 14:05 - Zoe: uno",
		"15/3/26, 14:06 - Ana: dos",
		"15/3/26, 14:07 - Zoe: tres",
	}, "\n"))

	want := []string{"Ana", "Zoe"}
	if len(res.Senders) != len(want) {
		t.Fatalf("expected senders %v, got %v", want, res.Senders)
	}
	for i := range want {
		if res.Senders[i] != want[i] {
			t.Fatalf("expected senders %v, got %v", want, res.Senders)
		}
	}
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
