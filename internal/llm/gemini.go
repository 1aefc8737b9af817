package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const geminiLiteModel = "gemini-2.5-flash-lite"

// Gemini pricing (per million tokens)
const (
	geminiLiteInputPricePerMillion  = 0.075
	geminiLiteOutputPricePerMillion = 0.30
)

// contentGenerator is the part of genai.Models the suggester uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiSuggester uses Google's Gemini API to choose a category.
type GeminiSuggester struct {
	models contentGenerator
	model  string
}

// NewGeminiSuggester creates a suggester authenticated with apiKey.
func NewGeminiSuggester(ctx context.Context, apiKey string) (*GeminiSuggester, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiSuggester{models: client.Models, model: geminiLiteModel}, nil
}

func (g *GeminiSuggester) Suggest(ctx context.Context, p Product, candidates []Candidate) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no candidates provided")
	}

	prompt := buildPrompt(p, candidates)
	result, err := g.models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	id, err := parseSuggestion(result.Text(), candidates)
	if err != nil {
		return "", err
	}

	if result.UsageMetadata != nil {
		cost := calculateGeminiCost(
			int64(result.UsageMetadata.PromptTokenCount),
			int64(result.UsageMetadata.CandidatesTokenCount),
			geminiLiteInputPricePerMillion,
			geminiLiteOutputPricePerMillion,
		)
		log.Info().
			Str("model", g.model).
			Int("inputTokens", int(result.UsageMetadata.PromptTokenCount)).
			Int("outputTokens", int(result.UsageMetadata.CandidatesTokenCount)).
			Float64("costUSD", cost).
			Str("product", p.Name).
			Str("selectedCategoryID", id).
			Msg("category suggestion llm call")
	}

	return id, nil
}

func calculateGeminiCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}

// extractJSONObject extracts a JSON object from text that may contain markdown
// code blocks or other formatting.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

// parseSuggestion reads the chosen id. An id that is not among the
// candidates is treated as no suggestion.
func parseSuggestion(text string, candidates []Candidate) (string, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return "", err
	}

	var resp struct {
		CategoryID any `json:"category_id"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return "", fmt.Errorf("failed to parse category json: %w (response: %s)", err, jsonStr)
	}

	var id string
	switch v := resp.CategoryID.(type) {
	case string:
		id = strings.TrimSpace(v)
	case float64:
		id = fmt.Sprintf("%.0f", v)
	}
	if id == "" || id == "0" {
		return "", nil
	}

	for _, c := range candidates {
		if c.ID == id {
			return id, nil
		}
	}
	log.Warn().Str("categoryID", id).Msg("model suggested a category outside the candidate list")
	return "", nil
}
