package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethpandaops/jwtprobe/internal/backend"
	"github.com/ethpandaops/jwtprobe/internal/config"
	"github.com/ethpandaops/jwtprobe/internal/harness/format"
	"github.com/ethpandaops/jwtprobe/internal/harness/table"
	"github.com/ethpandaops/jwtprobe/internal/savedtests"
	"github.com/spf13/cobra"
)

var errSavedTestsFailed = errors.New("one or more saved tests no longer decode to their stored result")

var (
	// Saved test command flags
	checkConcurrency int
	saveName         string
	saveDescription  string
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "Manage saved test cases",
	Long: `List, delete and check the named test cases stored by the backend.

Tests are created with 'jwtprobe encode --save NAME'.`,
}

var testsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved test cases",
	Args:  cobra.NoArgs,
	RunE:  runTestsList,
}

var testsSaveCmd = &cobra.Command{
	Use:   "save [token|-]",
	Short: "Save a token as a named test case",
	Long: `Decode the token through the backend and store it with the decoded header and
payload as its expected result.

Examples:
  jwtprobe tests save eyJhbGciOi... --name "admin claims"
  jwtprobe tests save - --name piped < token.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTestsSave,
}

var testsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved test case",
	Args:  cobra.ExactArgs(1),
	RunE:  runTestsDelete,
}

var testsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Re-decode every saved token and compare with its stored result",
	Args:  cobra.NoArgs,
	RunE:  runTestsCheck,
}

func init() {
	testsCheckCmd.Flags().IntVar(&checkConcurrency, "concurrency", config.DefaultCheckConcurrency, "Number of saved tests decoded in parallel")

	testsSaveCmd.Flags().StringVar(&saveName, "name", "", "Name of the test case (required)")
	testsSaveCmd.Flags().StringVar(&saveDescription, "description", "", "Description of the test case")
	_ = testsSaveCmd.MarkFlagRequired("name")

	testsCmd.AddCommand(testsListCmd)
	testsCmd.AddCommand(testsSaveCmd)
	testsCmd.AddCommand(testsDeleteCmd)
	testsCmd.AddCommand(testsCheckCmd)
	rootCmd.AddCommand(testsCmd)
}

func runTestsList(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	tests, err := savedtests.NewManager(a.log, a.client, 0).List(cmd.Context())
	if err != nil {
		return err
	}

	printSavedTests(cmd.OutOrStdout(), a, tests)

	return nil
}

func printSavedTests(w io.Writer, a *app, tests []backend.SavedTest) {
	if len(tests) == 0 {
		fmt.Fprintln(w, "No saved tests yet. Create one with 'jwtprobe encode --save NAME'.")
		return
	}

	rows := make([][]string, 0, len(tests))
	for _, t := range tests {
		rows = append(rows, []string{
			t.ID,
			t.Name,
			format.Truncate(t.Description, 40),
			format.Truncate(t.Token, 48),
		})
	}

	table.NewRenderer(a.log).RenderToWriter(w, []string{"ID", "Name", "Description", "Token"}, rows)
}

func runTestsSave(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	token, err := tokenArg(args)
	if err != nil {
		return err
	}
	if token == "" {
		return errTokenRequired
	}

	decoded, err := a.client.Decode(cmd.Context(), token)
	if err != nil {
		return fmt.Errorf("decoding token: %w", err)
	}

	err = savedtests.NewManager(a.log, a.client, 0).Save(cmd.Context(), savedtests.SaveInput{
		Name:        saveName,
		Description: saveDescription,
		Token:       token,
		Header:      decoded.Header,
		Payload:     decoded.Payload,
	})
	if err != nil {
		return err
	}

	a.formatter(cmd.OutOrStdout()).PrintSuccess(fmt.Sprintf("Test %q saved successfully", saveName))

	return nil
}

func runTestsDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	id := strings.TrimSpace(args[0])
	if err := savedtests.NewManager(a.log, a.client, 0).Delete(cmd.Context(), id); err != nil {
		return err
	}

	a.formatter(cmd.OutOrStdout()).PrintSuccess(fmt.Sprintf("Test %s deleted", id))

	return nil
}

func runTestsCheck(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext(cmd.Context(), a.log)
	defer cancel()

	out := cmd.OutOrStdout()
	f := a.formatter(out)

	f.PrintPhase("Checking saved tests")

	results, err := savedtests.NewManager(a.log, a.client, checkConcurrency).Check(ctx)
	if err != nil {
		return err
	}

	return printCheckResults(out, a, results)
}

// printCheckResults renders the check table and returns errSavedTestsFailed
// when any test failed.
func printCheckResults(w io.Writer, a *app, results []*savedtests.CheckResult) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No saved tests to check.")
		return nil
	}

	var (
		colors = table.NewColorHelper()
		rows   = make([][]string, 0, len(results))
		passed int
	)

	for _, r := range results {
		detail := ""
		switch {
		case r.Error != "":
			detail = format.Truncate(r.Error, 60)
		case len(r.Mismatches) > 0:
			detail = "mismatch: " + strings.Join(r.Mismatches, ", ")
		default:
			passed++
		}

		rows = append(rows, []string{
			r.Test.ID,
			r.Test.Name,
			colors.FormatStatus(r.Passed),
			format.Duration(r.Duration),
			detail,
		})
	}

	table.NewRenderer(a.log).RenderToWriter(w, []string{"ID", "Name", "Status", "Duration", "Detail"}, rows)
	fmt.Fprintf(w, "\nPassed: %s\n", colors.FormatCount(passed, len(results)))

	if passed != len(results) {
		return errSavedTestsFailed
	}

	return nil
}
