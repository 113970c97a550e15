package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/config"
	"github.com/ethpandaops/jwtprobe/internal/harness"
	"github.com/ethpandaops/jwtprobe/internal/harness/casedef"
	"github.com/ethpandaops/jwtprobe/internal/harness/format"
	"github.com/ethpandaops/jwtprobe/internal/harness/metrics"
	"github.com/ethpandaops/jwtprobe/internal/harness/output"
	"github.com/ethpandaops/jwtprobe/internal/harness/report"
	"github.com/ethpandaops/jwtprobe/internal/harness/table"
	"github.com/spf13/cobra"
)

var errSomeCasesFailed = errors.New("some cases failed")

var (
	// Harness command flags
	harnessEndpoint    string
	harnessSecret      string
	harnessTimeout     time.Duration
	harnessDelay       time.Duration
	harnessCasesFile   string
	harnessWhere       string
	harnessReport      string
	harnessAllowRemote bool
)

// harnessCmd represents the harness command
var harnessCmd = &cobra.Command{
	Use:   "harness",
	Short: "Fire malformed tokens at the backend",
	Long: `Send a fixed catalogue of deliberately malformed JWTs to the backend decode
or verify operation and check that every one is rejected the way a correct
backend must reject it.

Cases run one at a time with a short pause between them. Press Ctrl+C to
stop a batch after the request in flight.`,
}

var harnessRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every case (or the cases matching --where)",
	Long: `Run the catalogue sequentially and print a results table and summary.

Examples:
  jwtprobe harness run
  jwtprobe harness run --endpoint verify --secret -
  jwtprobe harness run --where 'expected == "malformed_format"' --report run.yaml`,
	Args: cobra.NoArgs,
	RunE: runHarness,
}

var harnessRunOneCmd = &cobra.Command{
	Use:   "run-one <case-id>",
	Short: "Run a single case",
	Args:  cobra.ExactArgs(1),
	RunE:  runHarnessOne,
}

var harnessListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the case catalogue",
	Args:  cobra.NoArgs,
	RunE:  runHarnessList,
}

func init() {
	harnessCmd.AddCommand(harnessRunCmd)
	harnessCmd.AddCommand(harnessRunOneCmd)
	harnessCmd.AddCommand(harnessListCmd)

	harnessCmd.PersistentFlags().StringVar(&harnessEndpoint, "endpoint", "", "Backend operation to target: decode or verify (default from JWTPROBE_ENDPOINT)")
	harnessCmd.PersistentFlags().StringVar(&harnessSecret, "secret", "", "Secret sent to verify; '-' prompts without echo (default from JWTPROBE_SECRET)")
	harnessCmd.PersistentFlags().DurationVar(&harnessTimeout, "timeout", 0, "Per-request timeout (default from JWTPROBE_TIMEOUT_MS)")
	harnessCmd.PersistentFlags().DurationVar(&harnessDelay, "delay", -1, "Pause between cases (default from JWTPROBE_DELAY_MS)")
	harnessCmd.PersistentFlags().StringVar(&harnessCasesFile, "cases", "", "YAML file with extra cases (default from JWTPROBE_CASES_FILE)")
	harnessCmd.PersistentFlags().StringVar(&harnessWhere, "where", "", "Filter expression over id, token, reason, expected, length, segments")
	harnessCmd.PersistentFlags().BoolVar(&harnessAllowRemote, "allow-remote", false, "Allow targeting a host outside the safe list")
	harnessRunCmd.Flags().StringVar(&harnessReport, "report", "", "Write a YAML or JSON report to this path (format from extension)")

	rootCmd.AddCommand(harnessCmd)
}

// harnessSession is a configured harness plus its output components.
type harnessSession struct {
	app       *app
	harness   *harness.Harness
	collector metrics.Collector
	formatter output.Formatter
	filter    *harness.Filter
}

// applyHarnessFlags overrides the loaded configuration with explicit flags.
func applyHarnessFlags(cfg *config.AppConfig) error {
	if harnessEndpoint != "" {
		if err := config.ValidateEndpoint(harnessEndpoint); err != nil {
			return err
		}
		cfg.Endpoint = harnessEndpoint
	}

	secret, err := resolveSecret(harnessSecret, cfg.Secret)
	if err != nil {
		return err
	}
	cfg.Secret = secret

	if harnessTimeout > 0 {
		cfg.Timeout = harnessTimeout
	}

	if harnessDelay >= 0 {
		cfg.Delay = harnessDelay
	}

	if harnessCasesFile != "" {
		cfg.CasesFile = harnessCasesFile
	}

	return nil
}

func newHarnessSession(w io.Writer, live bool) (*harnessSession, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}

	if err := applyHarnessFlags(a.cfg); err != nil {
		return nil, err
	}

	return buildHarnessSession(a, w, live, harnessAllowRemote, harnessWhere)
}

// buildHarnessSession wires the harness for a resolved configuration.
func buildHarnessSession(a *app, w io.Writer, live, allowRemote bool, where string) (*harnessSession, error) {
	if !allowRemote {
		if err := a.cfg.ValidateTarget(); err != nil {
			return nil, err
		}
	}

	cases := harness.Catalogue()
	if a.cfg.CasesFile != "" {
		extra, err := casedef.NewLoader(a.log).Load(a.cfg.CasesFile)
		if err != nil {
			return nil, err
		}
		cases = casedef.WithBuiltins(extra)
	}

	filter, err := harness.CompileFilter(where)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector(a.log)
	formatter := output.NewFormatter(a.log, w, collector)

	opts := []harness.Option{harness.WithCollector(collector)}
	if live {
		opts = append(opts, harness.WithOutcomeHook(formatter.PrintOutcome))
	}

	h, err := harness.New(a.log, harness.Config{
		Endpoint: a.cfg.Endpoint,
		Secret:   a.cfg.Secret,
		Timeout:  a.cfg.Timeout,
		Delay:    a.cfg.Delay,
		Cases:    cases,
	}, a.client, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating harness: %w", err)
	}

	return &harnessSession{
		app:       a,
		harness:   h,
		collector: collector,
		formatter: formatter,
		filter:    filter,
	}, nil
}

// runBatch runs all cases, or the filtered subset, and prints the results.
func (s *harnessSession) runBatch(ctx context.Context) ([]harness.TestOutcome, error) {
	ids, err := s.filter.Select(s.harness.Cases())
	if err != nil {
		return nil, err
	}

	settings := s.harness.Settings()
	s.formatter.PrintPhase(fmt.Sprintf("Running %d case(s) against %s/api/jwt/%s", len(ids), s.app.cfg.APIBase, settings.Endpoint))

	if err := s.collector.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting metrics collector: %w", err)
	}
	defer func() { _ = s.collector.Stop() }()

	var outcomes []harness.TestOutcome
	if s.filter.String() == "" {
		outcomes, err = s.harness.RunAll(ctx)
	} else {
		outcomes, err = s.harness.RunSubset(ctx, ids)
	}

	s.formatter.PrintResults(s.harness.Rows())
	s.formatter.PrintSummary()

	return outcomes, err
}

func runHarness(cmd *cobra.Command, _ []string) error {
	session, err := newHarnessSession(cmd.OutOrStdout(), true)
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext(cmd.Context(), session.app.log)
	defer cancel()

	started := time.Now()

	outcomes, runErr := session.runBatch(ctx)

	if harnessReport != "" {
		r := report.Build(
			session.app.cfg.APIBase,
			session.harness.Settings().Endpoint,
			started,
			session.harness.Rows(),
			session.collector,
		)
		if err := report.WriteFile(harnessReport, r); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		session.formatter.PrintSuccess(fmt.Sprintf("Report written to %s", harnessReport))
	}

	if runErr != nil {
		return runErr
	}

	return outcomesError(outcomes)
}

func runHarnessOne(cmd *cobra.Command, args []string) error {
	session, err := newHarnessSession(cmd.OutOrStdout(), false)
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext(cmd.Context(), session.app.log)
	defer cancel()

	outcome, err := session.harness.RunByID(ctx, args[0])
	if err != nil {
		return err
	}

	for _, c := range session.harness.Cases() {
		if c.ID == outcome.CaseID {
			session.formatter.PrintOutcome(c, outcome)
		}
	}

	if body := format.Body(outcome.Body); body != "" {
		session.formatter.PrintProgress(body, 0)
	}

	return outcomesError([]harness.TestOutcome{outcome})
}

func runHarnessList(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	cases := harness.Catalogue()
	casesFile := a.cfg.CasesFile
	if harnessCasesFile != "" {
		casesFile = harnessCasesFile
	}
	if casesFile != "" {
		extra, err := casedef.NewLoader(a.log).Load(casesFile)
		if err != nil {
			return err
		}
		cases = casedef.WithBuiltins(extra)
	}

	filter, err := harness.CompileFilter(harnessWhere)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(cases))
	for _, c := range cases {
		ok, err := filter.Match(c)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		rows = append(rows, []string{
			c.ID,
			c.Expected.String(),
			c.Reason,
			fmt.Sprintf("%q", format.Truncate(c.Token, 48)),
		})
	}

	table.NewRenderer(a.log).RenderToWriter(
		cmd.OutOrStdout(),
		[]string{"Case", "Expected", "Reason", "Token"},
		rows,
		table.WithRowSeparator(true),
	)

	return nil
}

func outcomesError(outcomes []harness.TestOutcome) error {
	for _, o := range outcomes {
		if !o.Passed {
			return errSomeCasesFailed
		}
	}

	return nil
}
