// README: Common money value object used across modules.
package types

import "math"

// DefaultCurrency is used when a price row carries no currency code.
const DefaultCurrency = "EGP"

type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// NonNegative coalesces missing, negative and non-finite amounts to 0.
func NonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
