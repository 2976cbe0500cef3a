// Package llm wraps the managed reasoning service behind a single-request
// interface the classifier can fake in tests.
package llm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Request is one classification round trip: a system prompt, a user prompt
// and the decoding parameters. ModelID comes from the Edit record.
type Request struct {
	SystemPrompt    string
	UserPrompt      string
	ModelID         string
	Temperature     float32
	MaxOutputTokens int32
}

// Gemini calls the Gemini API. The call is a single blocking round trip with
// no internal retry; callers handle failure with their own fallback.
type Gemini struct {
	apiKey string
	log    *logrus.Logger
}

// NewGemini creates a Gemini client.
func NewGemini(apiKey string, log *logrus.Logger) *Gemini {
	return &Gemini{apiKey: apiKey, log: log}
}

// Converse sends the request and returns the raw response text. The response
// is free text; parsing whatever structure it contains is the caller's job.
func (g *Gemini) Converse(ctx context.Context, req Request) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	g.log.WithField("model_id", req.ModelID).Info("Sending classification request")

	result, err := client.Models.GenerateContent(ctx, req.ModelID, genai.Text(req.UserPrompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model %s", req.ModelID)
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	return text, nil
}
