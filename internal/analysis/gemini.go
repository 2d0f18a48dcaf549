package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiGenerator sends audio to the Gemini generateContent endpoint with
// the fixed coaching prompt and the declared response schema.
type GeminiGenerator struct {
	service *genai.Service
	model   string
}

// NewGeminiGenerator creates the provider client. The API key must already
// be validated by the caller; an empty key is a configuration error.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("provider API key is empty")
	}

	service, err := genai.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider service: %w", err)
	}

	return &GeminiGenerator{service: service, model: model}, nil
}

// Generate issues exactly one request: instruction prompt + inline audio,
// temperature zero, JSON response constrained by the declared schema.
func (g *GeminiGenerator) Generate(ctx context.Context, payload, mimeType string) (string, error) {
	req := &genai.GenerateContentRequest{
		Contents: []*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: instructionPrompt},
				{InlineData: &genai.Blob{MimeType: mimeType, Data: payload}},
			},
		}},
		GenerationConfig: &genai.GenerationConfig{
			Temperature:      0,
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
			ForceSendFields:  []string{"Temperature"},
		},
	}

	resp, err := g.service.Models.GenerateContent("models/"+g.model, req).Context(ctx).Do()
	if err != nil {
		return "", mapProviderError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", &ProviderError{
			Kind: ProviderContentFiltered,
			Err:  fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason),
		}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &ProviderError{Kind: ProviderGeneric, Err: fmt.Errorf("empty response")}
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "PROHIBITED_CONTENT" {
		return "", &ProviderError{
			Kind: ProviderContentFiltered,
			Err:  fmt.Errorf("response blocked: %s", candidate.FinishReason),
		}
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", &ProviderError{Kind: ProviderGeneric, Err: fmt.Errorf("candidate carried no text")}
	}

	return text.String(), nil
}

// mapProviderError classifies a transport-level failure into the error
// taxonomy the controller maps to user-facing messages.
func mapProviderError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &ProviderError{Kind: ProviderGeneric, Err: err}
	}

	msg := strings.ToLower(gerr.Message)
	switch {
	case gerr.Code == 413 || strings.Contains(msg, "payload size") || strings.Contains(msg, "too large"):
		return &ProviderError{Kind: ProviderTooLarge, Err: err}
	case gerr.Code == 429:
		return &ProviderError{Kind: ProviderRateLimited, Err: err}
	case gerr.Code == 415 || strings.Contains(msg, "unsupported mime") || strings.Contains(msg, "unsupported media"):
		return &ProviderError{Kind: ProviderUnsupportedMedia, Err: err}
	case strings.Contains(msg, "blocked") || strings.Contains(msg, "safety"):
		return &ProviderError{Kind: ProviderContentFiltered, Err: err}
	default:
		return &ProviderError{Kind: ProviderGeneric, Err: err}
	}
}
