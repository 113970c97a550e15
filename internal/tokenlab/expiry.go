package tokenlab

import (
	"encoding/json"
	"time"
)

// ExpiryInfo describes the exp claim of a decoded payload.
type ExpiryInfo struct {
	Expired   bool
	ExpiresAt time.Time
}

// Expiry reads the exp claim. It returns nil when exp is absent, zero or not numeric.
func Expiry(payload map[string]any, now time.Time) *ExpiryInfo {
	exp, ok := numericClaim(payload["exp"])
	if !ok || exp == 0 {
		return nil
	}

	return &ExpiryInfo{
		Expired:   exp < now.Unix(),
		ExpiresAt: time.Unix(exp, 0),
	}
}

func numericClaim(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	default:
		return 0, false
	}
}
