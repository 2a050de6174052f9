// Package notation_test tests the notation package.
package notation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nmoralez/batuchat/internal/config"
	"github.com/nmoralez/batuchat/internal/notation"
)

func TestNewClientWithoutAPIKey(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := notation.NewClient(context.Background(), config.GeminiConfig{}, log)
	if err != nil {
		t.Fatalf("expected disabled client, got error %v", err)
	}

	if _, err := client.TranscribeText(context.Background(), "X . . o"); !errors.Is(err, notation.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from text transcription, got %v", err)
	}
	if _, err := client.TranscribeImage(context.Background(), "image/jpeg", []byte{1}); !errors.Is(err, notation.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from image transcription, got %v", err)
	}
}
