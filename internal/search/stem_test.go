// Package search_test tests the search package.
package search_test

import (
	"strings"
	"testing"

	"github.com/nmoralez/batuchat/internal/search"
)

func TestStemTextMatchesAcrossInflections(t *testing.T) {
	t.Parallel()

	// Inflection pairs of the same Spanish word must share a stem so a
	// query in one form finds content in the other.
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"verb conjugations", "ensayamos", "ensayar"},
		{"singular and plural", "ensayo", "ensayos"},
		{"gendered forms", "cancelado", "cancelada"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sa := search.StemText(tc.a)
			sb := search.StemText(tc.b)
			if sa == "" || sa != sb {
				t.Errorf("expected %q and %q to share a stem, got %q and %q", tc.a, tc.b, sa, sb)
			}
		})
	}
}

func TestStemTextTokenization(t *testing.T) {
	t.Parallel()

	got := search.StemText("¡Ensayo mañana, 19h!")
	tokens := strings.Fields(got)
	if len(tokens) != 3 {
		t.Fatalf("expected 3 stemmed tokens, got %v", tokens)
	}
	// Numbers and unknown tokens survive unstemmed.
	if tokens[2] != "19h" {
		t.Errorf("expected numeric token kept as-is, got %q", tokens[2])
	}
}

func TestStemTextEmpty(t *testing.T) {
	t.Parallel()

	if got := search.StemText("  ...  "); got != "" {
		t.Errorf("expected empty stem text, got %q", got)
	}
}

func TestMatchQuery(t *testing.T) {
	t.Parallel()

	t.Run("terms are quoted and required", func(t *testing.T) {
		t.Parallel()

		got := search.MatchQuery("ensayo avenida")
		parts := strings.Fields(got)
		if len(parts) != 2 {
			t.Fatalf("expected 2 quoted terms, got %q", got)
		}
		for _, p := range parts {
			if !strings.HasPrefix(p, `"`) || !strings.HasSuffix(p, `"`) {
				t.Errorf("expected quoted term, got %q", p)
			}
		}
	})

	t.Run("operators in input stay inert", func(t *testing.T) {
		t.Parallel()

		got := search.MatchQuery(`ensayo OR "x" NEAR(`)
		if strings.Contains(got, "(") || strings.Contains(got, `""`) {
			t.Errorf("expected operators neutralized, got %q", got)
		}
	})

	t.Run("query inflection matches content inflection", func(t *testing.T) {
		t.Parallel()

		match := search.MatchQuery("ensayando")
		indexed := search.StemText("ensayamos juntos")
		term := strings.Trim(strings.Fields(match)[0], `"`)
		if !strings.Contains(indexed, term) {
			t.Errorf("stemmed query term %q not found in indexed stems %q", term, indexed)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		t.Parallel()

		if got := search.MatchQuery(" !?- "); got != "" {
			t.Errorf("expected empty match expression, got %q", got)
		}
	})
}
