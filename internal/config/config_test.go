package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAPIBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		buildTime      string
		env            string
		override       string
		expectedBase   string
		expectedSource APIBaseSource
	}{
		{
			name:           "build time wins over everything",
			buildTime:      "https://build.example",
			env:            "https://env.example",
			override:       "https://flag.example",
			expectedBase:   "https://build.example",
			expectedSource: SourceBuild,
		},
		{
			name:           "env wins over override",
			env:            "https://env.example/",
			override:       "https://flag.example",
			expectedBase:   "https://env.example",
			expectedSource: SourceEnv,
		},
		{
			name:           "override used when nothing else is set",
			override:       "http://10.0.0.1:5000",
			expectedBase:   "http://10.0.0.1:5000",
			expectedSource: SourceOverride,
		},
		{
			name:           "blank values fall through to default",
			buildTime:      "  ",
			env:            "",
			expectedBase:   DefaultAPIBase,
			expectedSource: SourceDefault,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base, source := ResolveAPIBase(tt.buildTime, tt.env, tt.override)
			assert.Equal(t, tt.expectedBase, base)
			assert.Equal(t, tt.expectedSource, source)
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateEndpoint(EndpointDecode))
	require.NoError(t, ValidateEndpoint(EndpointVerify))
	require.ErrorIs(t, ValidateEndpoint("encode"), ErrInvalidEndpoint)
}

func TestAppConfig_ValidateTarget(t *testing.T) {
	t.Parallel()

	cfg := &AppConfig{
		APIBase:       "http://127.0.0.1:5000",
		SafeHostnames: append(DefaultSafeHosts(), "jwt.internal"),
	}
	require.NoError(t, cfg.ValidateTarget())

	cfg.APIBase = "http://jwt.internal:8080"
	require.NoError(t, cfg.ValidateTarget())

	cfg.APIBase = "https://lf-backend.example.com"
	require.ErrorIs(t, cfg.ValidateTarget(), ErrNonWhitelistedHost)
}

func TestAppConfig_StringMasksSecret(t *testing.T) {
	t.Parallel()

	cfg := &AppConfig{
		APIBase:       DefaultAPIBase,
		APIBaseSource: SourceDefault,
		Endpoint:      EndpointVerify,
		Secret:        "hunter2",
		Timeout:       DefaultAttemptTimeout,
		Delay:         DefaultCaseDelay,
		SafeHostnames: DefaultSafeHosts(),
	}

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "********")
	assert.Contains(t, out, "8000ms")
	assert.Contains(t, out, "(built-in only)")
}

func TestParseSafeHostnames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{}, parseSafeHostnames(""))
	assert.Equal(t, []string{"a", "b"}, parseSafeHostnames(" a, ,b "))
}
