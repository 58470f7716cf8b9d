package feasibility

import "errors"

// Reasons a pool cannot field a team.
var (
	ErrInsufficientSwimmers = errors.New("insufficient swimmers")
	ErrInsufficientWomen    = errors.New("insufficient women")
	ErrNoAgeCombination     = errors.New("no age-sum combination possible")
)

// ReasonCode maps a reason to a short label for metrics and logs.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientSwimmers):
		return "insufficient_swimmers"
	case errors.Is(err, ErrInsufficientWomen):
		return "insufficient_women"
	case errors.Is(err, ErrNoAgeCombination):
		return "no_age_combination"
	default:
		return "unknown"
	}
}
