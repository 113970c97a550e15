package tokenlab

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kataras/jwt"
)

// CrossCheckStatus is the verdict of a local HMAC check.
type CrossCheckStatus string

const (
	// CrossCheckValid means the signature matches the secret.
	CrossCheckValid CrossCheckStatus = "valid"
	// CrossCheckExpired means the signature matches but exp is in the past.
	CrossCheckExpired CrossCheckStatus = "expired"
	// CrossCheckInvalidSignature means the signature does not match.
	CrossCheckInvalidSignature CrossCheckStatus = "invalid_signature"
	// CrossCheckUnsupported means the header names a non HMAC algorithm.
	CrossCheckUnsupported CrossCheckStatus = "unsupported_algorithm"
	// CrossCheckMalformed means the token could not be split or decoded.
	CrossCheckMalformed CrossCheckStatus = "malformed"
)

// CrossCheckResult is the outcome of CrossCheck.
type CrossCheckResult struct {
	Algorithm string
	Status    CrossCheckStatus
	Detail    string
}

// SignatureValid reports whether the secret produced the signature.
func (r CrossCheckResult) SignatureValid() bool {
	return r.Status == CrossCheckValid || r.Status == CrossCheckExpired
}

// CrossCheck verifies an HS256/384/512 token locally. It is informational
// only; the backend verify operation stays authoritative.
func CrossCheck(token, secret string) CrossCheckResult {
	token = strings.TrimSpace(token)

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return CrossCheckResult{Status: CrossCheckMalformed, Detail: "token must have three segments"}
	}

	algName, err := headerAlgorithm(parts[0])
	if err != nil {
		return CrossCheckResult{Status: CrossCheckMalformed, Detail: err.Error()}
	}

	result := CrossCheckResult{Algorithm: algName}

	alg, ok := algorithm(algName)
	if !ok {
		result.Status = CrossCheckUnsupported
		return result
	}

	_, err = jwt.Verify(alg, []byte(secret), []byte(token))

	switch {
	case err == nil:
		result.Status = CrossCheckValid
	case errors.Is(err, jwt.ErrExpired):
		result.Status = CrossCheckExpired
	case errors.Is(err, jwt.ErrTokenSignature):
		result.Status = CrossCheckInvalidSignature
	default:
		result.Status = CrossCheckMalformed
		result.Detail = err.Error()
	}

	return result
}

var errHeaderAlg = errors.New("header has no string alg")

func headerAlgorithm(segment string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return "", err
	}

	var header struct {
		Alg any `json:"alg"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return "", err
	}

	name, ok := header.Alg.(string)
	if !ok {
		return "", errHeaderAlg
	}

	return name, nil
}

// Sign creates a token locally with kataras/jwt. Used by tests and by the
// encode command's offline preview.
func Sign(algName, secret string, claims map[string]any) (string, error) {
	alg, ok := algorithm(algName)
	if !ok {
		return "", jwt.ErrTokenAlg
	}

	token, err := jwt.Sign(alg, []byte(secret), claims)
	if err != nil {
		return "", err
	}

	return string(token), nil
}
