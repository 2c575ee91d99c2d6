package generate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	genai "google.golang.org/genai"
)

// TextGenerator is the generative text service seen by the Generator.
type TextGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Ping(ctx context.Context) error
}

// GeminiClient is a thin wrapper around the official genai client. It only
// covers the API call itself; retries and fallbacks live in the Generator.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

var errEmptyResponse = errors.New("empty response from model")

// GenerateJSON concatenates prompt and input, asks for application/json,
// and returns the model's JSON as json.RawMessage.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, _ := json.MarshalIndent(input, "", "  ")
	full := prompt + "\n\n[INPUT JSON]\n" + string(in)

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		if isPermanentUpstreamError(err) {
			return nil, &GenerationError{Err: err}
		}
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &GenerationParseError{Err: errEmptyResponse}
	}
	return json.RawMessage(resp.Candidates[0].Content.Parts[0].Text), nil
}

// Ping verifies key validity and reachability with a token count, which is
// free and does not generate content.
func (g *GeminiClient) Ping(ctx context.Context) error {
	_, err := g.cli.Models.CountTokens(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: "ping"}}}}, nil)
	if err != nil && isPermanentUpstreamError(err) {
		return &GenerationError{Err: err}
	}
	return err
}

// isPermanentUpstreamError reports whether the upstream failure is an
// authentication or quota problem that retries cannot fix.
func isPermanentUpstreamError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"api key", "unauthenticated", "unauthorized",
		"permission denied", "quota", "resource_exhausted", "billing",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
