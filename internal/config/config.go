// Package config handles configuration loading and management
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	// ErrInvalidEndpoint is returned when the harness endpoint is neither decode nor verify.
	ErrInvalidEndpoint = errors.New("endpoint must be decode or verify")
	// ErrNonWhitelistedHost is returned when the API base points at a host outside the safe list.
	ErrNonWhitelistedHost = errors.New("refusing to target non-whitelisted host")
)

// APIBaseSource records which step of the lookup chain produced the API base.
type APIBaseSource string

const (
	// SourceBuild is the value injected at build time.
	SourceBuild APIBaseSource = "build"
	// SourceEnv is the JWTPROBE_API_BASE environment variable.
	SourceEnv APIBaseSource = "env"
	// SourceOverride is the --api-base flag.
	SourceOverride APIBaseSource = "override"
	// SourceDefault is the hardcoded local fallback.
	SourceDefault APIBaseSource = "default"
)

// AppConfig holds the application configuration loaded from environment variables.
type AppConfig struct {
	APIBase       string
	APIBaseSource APIBaseSource
	Endpoint      string
	Secret        string
	Timeout       time.Duration
	Delay         time.Duration
	CasesFile     string
	SafeHostnames []string
}

// Load reads configuration from environment variables and .env file.
// override is the value of the global --api-base flag, empty when unset.
func Load(override string) (*AppConfig, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if the file doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	base, source := ResolveAPIBase(BuildAPIBase, os.Getenv("JWTPROBE_API_BASE"), override)

	cfg := &AppConfig{
		APIBase:       base,
		APIBaseSource: source,
		Endpoint:      getEnv("JWTPROBE_ENDPOINT", EndpointDecode),
		Secret:        getEnv("JWTPROBE_SECRET", ""),
		CasesFile:     getEnv("JWTPROBE_CASES_FILE", ""),
		SafeHostnames: append(DefaultSafeHosts(), parseSafeHostnames(getEnv("JWTPROBE_SAFE_HOSTS", ""))...),
	}

	if err := ValidateEndpoint(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid JWTPROBE_ENDPOINT: %w", err)
	}

	// Parse numeric values
	timeoutMs, err := strconv.Atoi(getEnv("JWTPROBE_TIMEOUT_MS", strconv.FormatInt(DefaultAttemptTimeout.Milliseconds(), 10)))
	if err != nil {
		return nil, fmt.Errorf("invalid JWTPROBE_TIMEOUT_MS: %w", err)
	}
	cfg.Timeout = time.Duration(timeoutMs) * time.Millisecond

	delayMs, err := strconv.Atoi(getEnv("JWTPROBE_DELAY_MS", strconv.FormatInt(DefaultCaseDelay.Milliseconds(), 10)))
	if err != nil {
		return nil, fmt.Errorf("invalid JWTPROBE_DELAY_MS: %w", err)
	}
	cfg.Delay = time.Duration(delayMs) * time.Millisecond

	return cfg, nil
}

// ResolveAPIBase walks the lookup chain once, highest priority first:
// build-time value, environment variable, global override, local fallback.
func ResolveAPIBase(buildTime, env, override string) (string, APIBaseSource) {
	switch {
	case strings.TrimSpace(buildTime) != "":
		return strings.TrimRight(strings.TrimSpace(buildTime), "/"), SourceBuild
	case strings.TrimSpace(env) != "":
		return strings.TrimRight(strings.TrimSpace(env), "/"), SourceEnv
	case strings.TrimSpace(override) != "":
		return strings.TrimRight(strings.TrimSpace(override), "/"), SourceOverride
	default:
		return DefaultAPIBase, SourceDefault
	}
}

// ValidateEndpoint checks a harness endpoint name.
func ValidateEndpoint(endpoint string) error {
	if endpoint != EndpointDecode && endpoint != EndpointVerify {
		return fmt.Errorf("%w: got %q", ErrInvalidEndpoint, endpoint)
	}

	return nil
}

// ValidateTarget checks that the API base host is in the safe hostname list.
func (c *AppConfig) ValidateTarget() error {
	u, err := url.Parse(c.APIBase)
	if err != nil {
		return fmt.Errorf("parsing api base %q: %w", c.APIBase, err)
	}

	host := u.Hostname()
	for _, safe := range c.SafeHostnames {
		if host == safe {
			return nil
		}
	}

	return fmt.Errorf(
		"SAFETY: host '%s' is not in the safe list %v. "+
			"Add it to JWTPROBE_SAFE_HOSTS or pass --allow-remote: %w",
		host,
		c.SafeHostnames,
		ErrNonWhitelistedHost,
	)
}

func (c *AppConfig) String() string {
	secretDisplay := "(not set)"
	if c.Secret != "" {
		secretDisplay = "********"
	}

	casesDisplay := c.CasesFile
	if casesDisplay == "" {
		casesDisplay = "(built-in only)"
	}

	return fmt.Sprintf(`Current Configuration:
======================
API Base:          %s (%s)
Harness Endpoint:  %s
Verify Secret:     %s
Attempt Timeout:   %dms
Case Delay:        %dms
Extra Cases File:  %s
Safe Hosts:        %s`,
		c.APIBase,
		c.APIBaseSource,
		c.Endpoint,
		secretDisplay,
		c.Timeout.Milliseconds(),
		c.Delay.Milliseconds(),
		casesDisplay,
		strings.Join(c.SafeHostnames, ", "),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseSafeHostnames parses a comma-separated list of hostnames.
func parseSafeHostnames(s string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	hostnames := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			hostnames = append(hostnames, trimmed)
		}
	}

	return hostnames
}
