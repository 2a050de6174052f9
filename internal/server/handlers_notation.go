package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/nmoralez/batuchat/internal/notation"
)

// maxImageSize bounds a notation photo upload.
const maxImageSize = 10 << 20

type notationResponse struct {
	Success  bool               `json:"success"`
	Notation *notation.Notation `json:"notation,omitempty"`
	Raw      bool               `json:"raw,omitempty"`
	Text     string             `json:"text,omitempty"`
	Message  string             `json:"message,omitempty"`
}

func (s *Server) handleNotationImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)

	file, header, err := r.FormFile("image")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "No image uploaded")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Failed to read uploaded image")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	result, err := s.transcriber.TranscribeImage(r.Context(), mimeType, imageData)
	s.respondNotation(w, r, result, err)
}

func (s *Server) handleNotationText(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		s.respondError(w, r, http.StatusBadRequest, "No text provided")
		return
	}

	result, err := s.transcriber.TranscribeText(r.Context(), body.Text)
	s.respondNotation(w, r, result, err)
}

func (s *Server) respondNotation(w http.ResponseWriter, r *http.Request, result *notation.Result, err error) {
	if err != nil {
		if errors.Is(err, notation.ErrUnavailable) {
			s.respondError(w, r, http.StatusServiceUnavailable, "Notation transcription is not configured")
			return
		}
		s.log.ErrorContext(r.Context(), "Transcription failed", "error", err)
		s.respondError(w, r, http.StatusInternalServerError, "Transcription failed")
		return
	}

	if result.Notation == nil {
		s.respondJSON(w, r, http.StatusOK, notationResponse{
			Success: true,
			Raw:     true,
			Text:    result.Raw,
			Message: "Could not parse structured notation, showing raw AI response",
		})
		return
	}

	s.respondJSON(w, r, http.StatusOK, notationResponse{Success: true, Notation: result.Notation})
}
