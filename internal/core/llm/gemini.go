package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var ErrAPIKeyRequired = errors.New("llm.api_key is required: set GEMINI_API_KEY")

const summaryPrompt = `You are a meeting assistant. Given the transcript below, respond with ONLY a JSON object, no prose and no markdown, in exactly this shape:
{
  "summary": "concise paragraph summarizing the meeting",
  "key_decisions": "semicolon-separated list of decisions made, or empty string",
  "action_items": [
    {"description": "what must be done", "assigned_to": "person or empty string", "due_date": "YYYY-MM-DD or empty string"}
  ]
}

Transcript:
%s`

// Gemini implements Summarizer against the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Summarize(ctx context.Context, transcript string) (SummaryResult, error) {
	prompt := fmt.Sprintf(summaryPrompt, transcript)
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("generate content: %w", err)
	}
	return ParseSummary(responseText(result))
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

// ParseSummary decodes a model response into a SummaryResult. Markdown code
// fences are stripped first since models add them despite instructions.
func ParseSummary(raw string) (SummaryResult, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return SummaryResult{}, errors.New("empty model response")
	}
	var res SummaryResult
	if err := json.Unmarshal([]byte(cleaned), &res); err != nil {
		return SummaryResult{}, fmt.Errorf("malformed model response: %w", err)
	}
	if strings.TrimSpace(res.SummaryText) == "" {
		return SummaryResult{}, errors.New("model response missing summary")
	}
	return res, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
