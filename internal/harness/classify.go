package harness

import "net/http"

// validityFlag is the verify response member holding the signature verdict.
const validityFlag = "valid_signature"

// Classify reports whether an observed answer satisfies the expectation.
// status is zero when no HTTP status was observed; body is the parsed JSON
// value, the raw text when the body was not JSON, or nil when empty.
func Classify(expected Expectation, status int, body any) bool {
	switch expected {
	case ClientErrorOrException, MalformedFormat:
		return isClientError(status)
	case SignatureRejected:
		if status == http.StatusOK {
			return signatureReportedInvalid(body)
		}

		return isClientError(status)
	default:
		return false
	}
}

func isClientError(status int) bool {
	return status >= 400 && status < 500
}

// signatureReportedInvalid is true only for an explicit boolean false.
func signatureReportedInvalid(body any) bool {
	obj, ok := body.(map[string]any)
	if !ok {
		return false
	}

	valid, ok := obj[validityFlag].(bool)

	return ok && !valid
}
