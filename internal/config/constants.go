package config

import "time"

const (
	// DefaultAPIBase is the backend address used when nothing else is configured.
	DefaultAPIBase = "http://127.0.0.1:5000"
	// APIPrefix is the path prefix of every backend JWT operation.
	APIPrefix = "/api/jwt"
	// EndpointDecode selects the backend decode operation.
	EndpointDecode = "decode"
	// EndpointVerify selects the backend verify operation.
	EndpointVerify = "verify"
	// DefaultAttemptTimeout is the per-request deadline of a harness attempt.
	DefaultAttemptTimeout = 8000 * time.Millisecond
	// DefaultCaseDelay is the pause between consecutive harness cases.
	DefaultCaseDelay = 120 * time.Millisecond
	// DefaultHTTPTimeout bounds the typed backend operations.
	DefaultHTTPTimeout = 30 * time.Second
	// DefaultCheckConcurrency is the number of saved tests re-decoded in parallel.
	DefaultCheckConcurrency = 4
)

// BuildAPIBase is injected at build time:
//
//	go build -ldflags "-X github.com/ethpandaops/jwtprobe/internal/config.BuildAPIBase=https://..."
//
//nolint:gochecknoglobals // set by the linker
var BuildAPIBase string

// DefaultSafeHosts are always allowed to receive adversarial tokens.
func DefaultSafeHosts() []string {
	return []string{"localhost", "127.0.0.1", "::1"}
}
