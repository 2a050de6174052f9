// Package notation implements AI-assisted transcription of percussion
// notation into a standardized tubos grid, backed by Google's Gemini API.
package notation

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when transcription is requested but no API
// key was configured.
var ErrUnavailable = errors.New("notation transcription is not configured")

// Notation is a structured tubos-grid transcription.
type Notation struct {
	Title         string            `json:"title"`
	Rhythm        string            `json:"rhythm"`
	Instrument    string            `json:"instrument"`
	TimeSignature string            `json:"timeSignature"`
	Feel          string            `json:"feel"`
	BPM           *int              `json:"bpm"`
	Bars          int               `json:"bars"`
	Grid          string            `json:"grid"`
	Key           map[string]string `json:"key"`
	Notes         string            `json:"notes"`
	Confidence    string            `json:"confidence"`
}

// Result is a transcription outcome. When the model's reply cannot be
// parsed as structured notation, Notation is nil and Raw carries the
// reply text verbatim so the caller can still show it.
type Result struct {
	Notation *Notation
	Raw      string
}

// Transcriber defines the interface for notation transcription used by
// the HTTP layer.
type Transcriber interface {
	// TranscribeImage transcribes a photo of percussion notation.
	TranscribeImage(ctx context.Context, mimeType string, imageData []byte) (*Result, error)

	// TranscribeText transcribes pasted text notation, cleaning it up
	// into the standard grid.
	TranscribeText(ctx context.Context, text string) (*Result, error)
}
