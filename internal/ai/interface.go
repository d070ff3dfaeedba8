package ai

import (
	"context"
)

// SearchAssistant turns a customer's free-text request into car search filters.
// Implementations may be swapped (Gemini today).
type SearchAssistant interface {
	// ParseSearch extracts filters from message. hints carries request
	// context such as "current_date" and "user_city".
	ParseSearch(ctx context.Context, message string, hints map[string]string) (*SearchIntent, error)
}
