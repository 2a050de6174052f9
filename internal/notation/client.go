package notation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/nmoralez/batuchat/internal/config"
)

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	maxRetries    int
	retryDelay    time.Duration
}

// notationSchema constrains the model output to the tubos grid JSON
// shape so parsing failures stay rare.
var notationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":         {Type: genai.TypeString, Description: "Name of the rhythm or pattern."},
		"rhythm":        {Type: genai.TypeString, Description: "One of: avenida, merengue, afro, swing, reggae, samba_de_roda, unknown."},
		"instrument":    {Type: genai.TypeString, Description: "One of: repinique, caixa, surdo_fundo, surdo_dobra, tamborim, agogo, timba, chocalho, multiple, unknown."},
		"timeSignature": {Type: genai.TypeString, Description: "One of: 4/4, 6/8, 12/8."},
		"feel":          {Type: genai.TypeString, Description: "One of: straight, swing, triplet."},
		"bpm":           {Type: genai.TypeInteger, Nullable: genai.Ptr(true), Description: "Tempo if stated, otherwise null."},
		"bars":          {Type: genai.TypeInteger, Description: "Number of bars in the grid."},
		"grid":          {Type: genai.TypeString, Description: "The cleaned up notation in tubos grid format."},
		"key":           {Type: genai.TypeObject, Description: "Symbol to meaning mapping for non-standard symbols."},
		"notes":         {Type: genai.TypeString, Description: "Performance notes, tips, or context."},
		"confidence":    {Type: genai.TypeString, Description: "One of: high, medium, low."},
	},
	Required: []string{"title", "rhythm", "instrument", "timeSignature", "feel", "bars", "grid", "notes", "confidence"},
}

// NewClient creates a new Gemini-backed Transcriber with the provided
// configuration. An empty API key yields a client whose methods return
// ErrUnavailable, so the rest of the application can start normally.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Transcriber, error) {
	logger := log.With("component", "notation_client")

	if cfg.APIKey == "" {
		logger.Warn("No Gemini API key configured, notation transcription disabled")
		return &disabledClient{}, nil
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	baseCfg := &genai.GenerateContentConfig{
		Temperature:       &cfg.Temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SystemInstruction}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    notationSchema,
	}

	logger.Info("Notation client initialized successfully", "model", cfg.ModelName)
	return &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.ModelName,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call due to retriable APIError", "delay", c.retryDelay, "code", apiErr.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			c.log.ErrorContext(ctx, "Gemini API call failed after max retries with APIError", "error", err, "code", apiErr.Code)
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return nil, err
}

// TranscribeImage transcribes a photo of percussion notation.
func (c *sdkClient) TranscribeImage(ctx context.Context, mimeType string, imageData []byte) (*Result, error) {
	if len(imageData) == 0 || mimeType == "" {
		return nil, fmt.Errorf("image data and MIME type are required for transcription")
	}
	c.log.DebugContext(ctx, "Transcribing notation image", "image_size", len(imageData), "mime_type", mimeType)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(imageData, mimeType),
			genai.NewPartFromText(imagePrompt),
		}, genai.RoleUser),
	}

	return c.transcribe(ctx, contents)
}

// TranscribeText transcribes pasted text notation.
func (c *sdkClient) TranscribeText(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required for transcription")
	}
	c.log.DebugContext(ctx, "Transcribing notation text", "text_len", len(text))

	contents := []*genai.Content{
		genai.NewContentFromText(textPromptPrefix+text, genai.RoleUser),
	}

	return c.transcribe(ctx, contents)
}

func (c *sdkClient) transcribe(ctx context.Context, contents []*genai.Content) (*Result, error) {
	resp, err := c.generateContentWithRetries(ctx, contents)
	if err != nil {
		return nil, err
	}

	text, err := c.extractTextFromResponse(ctx, resp)
	if err != nil {
		return nil, err
	}

	parsed := &Notation{}
	if err := json.Unmarshal([]byte(stripCodeFences(text)), parsed); err != nil {
		c.log.WarnContext(ctx, "Could not parse structured notation, returning raw response", "error", err)
		return &Result{Raw: text}, nil
	}

	return &Result{Notation: parsed}, nil
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reasonMsg)
		return "", fmt.Errorf("transcription blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("transcription returned no content, finish reason: %s", finishReason)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("transcription returned empty text")
	}
	return text, nil
}

// stripCodeFences removes markdown json fences the model sometimes adds
// despite the instructions.
func stripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// disabledClient is the Transcriber used when no API key is configured.
type disabledClient struct{}

func (d *disabledClient) TranscribeImage(context.Context, string, []byte) (*Result, error) {
	return nil, ErrUnavailable
}

func (d *disabledClient) TranscribeText(context.Context, string) (*Result, error) {
	return nil, ErrUnavailable
}
