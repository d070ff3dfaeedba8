package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-2.0-flash"

// GeminiAssistant implements SearchAssistant using Google's Gemini models.
type GeminiAssistant struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiAssistant initializes a new Gemini client.
func NewGeminiAssistant(ctx context.Context, apiKey string) (*GeminiAssistant, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: missing api key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(geminiModel)
	model.ResponseMIMEType = "application/json"
	// Extraction, not creativity.
	model.SetTemperature(0.1)

	return &GeminiAssistant{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (a *GeminiAssistant) Close() {
	a.client.Close()
}

// ParseSearch asks Gemini for a filter object and canonicalises the answer.
func (a *GeminiAssistant) ParseSearch(ctx context.Context, message string, hints map[string]string) (*SearchIntent, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("gemini: empty message")
	}
	fullPrompt := fmt.Sprintf("%s\n\nUser Message: %s", buildSystemPrompt(hints), message)

	resp, err := a.model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}
	return decodeSearchResponse(responseText.String())
}

func decodeSearchResponse(raw string) (*SearchIntent, error) {
	cleanJSON := cleanJSONString(raw)
	var result searchResponse
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	return result.toIntent(), nil
}

// buildSystemPrompt constructs the instructions for the model.
func buildSystemPrompt(hints map[string]string) string {
	currentDate := hints["current_date"]
	userCity := hints["user_city"]
	if currentDate == "" {
		currentDate = "UNKNOWN_DATE"
	}
	if userCity == "" {
		userCity = "UNKNOWN_CITY"
	}

	return fmt.Sprintf(`Role: You are the search assistant of "Get a Car", a car-rental marketplace in Egypt.
Context:
- Current Date: %s
- User City: %s

Turn the user's request into search filters. Only fill a field when the user clearly asked for it.

RULES:
1. Car types are words like "SUV", "Sedan", "Hatchback", "Van". Fuel types: "petrol", "diesel", "hybrid", "electric". Transmissions: "automatic", "manual".
2. Prices are per day in EGP. "under 800" -> maxPrice 800. "at least 300" -> minPrice 300. Never invent a price.
3. Dates are YYYY-MM-DD. Resolve "tomorrow", "next Friday", "for 3 days" against Current Date. A range needs both pickupDate and dropoffDate.
4. "with a driver", "chauffeur" -> withDriver true. "self drive" -> withDriver false. Otherwise null.
5. If the user only says the city, use it for pickupLocation. Use User City only when the user says "here" or "near me".
6. If nothing usable can be extracted, set "clarification": true and ask one short question in "reply".
7. Reply in the user's language (Arabic or English), one sentence.

Output JSON Schema:
{
  "vendorNames": ["string"],
  "types": ["string"],
  "fuelTypes": ["string"],
  "branches": ["string"],
  "transmissions": ["string"],
  "minPrice": number | null,
  "maxPrice": number | null,
  "pickupLocation": "string",
  "dropOffLocation": "string",
  "pickupDate": "YYYY-MM-DD" | "",
  "dropoffDate": "YYYY-MM-DD" | "",
  "withDriver": boolean | null,
  "clarification": boolean,
  "reply": "string"
}
`, currentDate, userCity)
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
