package tokenlab

import "github.com/kataras/jwt"

// AllowedAlgorithms are the HMAC algorithms offered by the encode command.
var AllowedAlgorithms = []string{"HS256", "HS384", "HS512"}

// IsAlgorithmAllowed reports whether name is an allowed algorithm.
func IsAlgorithmAllowed(name string) bool {
	_, ok := algorithm(name)
	return ok
}

func algorithm(name string) (jwt.Alg, bool) {
	switch name {
	case "HS256":
		return jwt.HS256, true
	case "HS384":
		return jwt.HS384, true
	case "HS512":
		return jwt.HS512, true
	default:
		return nil, false
	}
}
