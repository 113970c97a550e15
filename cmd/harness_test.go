package cmd

import (
	"testing"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/config"
	"github.com/ethpandaops/jwtprobe/internal/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedConfig() *config.AppConfig {
	return &config.AppConfig{
		Endpoint:  config.EndpointDecode,
		Secret:    "from-env",
		Timeout:   config.DefaultAttemptTimeout,
		Delay:     config.DefaultCaseDelay,
		CasesFile: "env-cases.yaml",
	}
}

// setHarnessFlags assigns the flag variables for one case and restores the
// unset values afterwards.
func setHarnessFlags(t *testing.T, endpoint, secret string, timeout, delay time.Duration, casesFile string) {
	t.Helper()

	harnessEndpoint, harnessSecret = endpoint, secret
	harnessTimeout, harnessDelay = timeout, delay
	harnessCasesFile = casesFile

	t.Cleanup(func() {
		harnessEndpoint, harnessSecret = "", ""
		harnessTimeout, harnessDelay = 0, -1
		harnessCasesFile = ""
	})
}

func TestApplyHarnessFlags(t *testing.T) {
	tests := []struct {
		name      string
		endpoint  string
		secret    string
		timeout   time.Duration
		delay     time.Duration
		casesFile string
		want      *config.AppConfig
		wantErr   error
	}{
		{
			name:  "unset flags keep the loaded configuration",
			delay: -1,
			want:  loadedConfig(),
		},
		{
			name:      "explicit flags win",
			endpoint:  config.EndpointVerify,
			secret:    "from-flag",
			timeout:   2 * time.Second,
			delay:     50 * time.Millisecond,
			casesFile: "flag-cases.yaml",
			want: &config.AppConfig{
				Endpoint:  config.EndpointVerify,
				Secret:    "from-flag",
				Timeout:   2 * time.Second,
				Delay:     50 * time.Millisecond,
				CasesFile: "flag-cases.yaml",
			},
		},
		{
			name:  "zero delay disables pacing",
			delay: 0,
			want: func() *config.AppConfig {
				cfg := loadedConfig()
				cfg.Delay = 0
				return cfg
			}(),
		},
		{
			name:     "unknown endpoint is rejected",
			endpoint: "encode",
			delay:    -1,
			wantErr:  config.ErrInvalidEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setHarnessFlags(t, tt.endpoint, tt.secret, tt.timeout, tt.delay, tt.casesFile)

			cfg := loadedConfig()
			err := applyHarnessFlags(cfg)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestOutcomesError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		outcomes []harness.TestOutcome
		wantErr  bool
	}{
		{name: "no outcomes", outcomes: nil},
		{
			name: "all passed",
			outcomes: []harness.TestOutcome{
				{CaseID: "empty", Passed: true},
				{CaseID: "only_dots", Passed: true},
			},
		},
		{
			name: "one failed",
			outcomes: []harness.TestOutcome{
				{CaseID: "empty", Passed: true},
				{CaseID: "garbage_signature", HTTPStatus: 200},
			},
			wantErr: true,
		},
		{
			name:     "timeout counts as failure",
			outcomes: []harness.TestOutcome{{CaseID: "empty", Error: "timeout 8000ms"}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := outcomesError(tt.outcomes)
			if tt.wantErr {
				require.ErrorIs(t, err, errSomeCasesFailed)
				return
			}
			require.NoError(t, err)
		})
	}
}
