package aiusage

import "errors"

// ErrInsufficientTokens is returned when a user has no AI searches left for the current month.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// DefaultTokens is the number of AI searches granted per month.
const DefaultTokens = 100

// monthKey is the layout of ai_usage.last_reset_month.
const monthKey = "2006-01"
