package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/backend"
	"github.com/ethpandaops/jwtprobe/internal/config"
	"github.com/ethpandaops/jwtprobe/internal/harness"
	"github.com/ethpandaops/jwtprobe/internal/interactive"
	"github.com/ethpandaops/jwtprobe/internal/savedtests"
	"github.com/ethpandaops/jwtprobe/internal/tokenlab"
	"github.com/spf13/cobra"
)

var errInvalidTimeout = errors.New("timeout must be a positive number of milliseconds")

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch the interactive menu",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		RunInteractive()
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

// console keeps one harness across menu visits so results persist
// between runs.
type console struct {
	app     *app
	session *harnessSession
}

// RunInteractive runs the menu driven mode until the user exits.
func RunInteractive() {
	fmt.Println("jwtprobe - Interactive Mode")
	fmt.Println("===========================")
	fmt.Println()

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}

	c := &console{app: a}

	for {
		options := []interactive.MenuOption{
			{
				Name:        "🧪 Malformed Token Harness",
				Description: "Fire malformed tokens at decode or verify",
				Action:      c.showHarnessMenu,
			},
			{
				Name:        "🔐 Encode",
				Description: "Sign a header and payload",
				Action:      c.pausing(c.encode),
			},
			{
				Name:        "🔎 Decode",
				Description: "Decode a token",
				Action:      c.pausing(c.decode),
			},
			{
				Name:        "✅ Verify",
				Description: "Check a token signature",
				Action:      c.pausing(c.verify),
			},
			{
				Name:        "🧬 Analyze",
				Description: "Lexical, syntactic and semantic analysis",
				Action:      c.pausing(c.analyze),
			},
			{
				Name:        "💾 Saved Tests",
				Description: "List, check and delete saved test cases",
				Action:      c.showSavedTestsMenu,
			},
			{
				Name:        "📋 Show Config",
				Description: "Display current environment configuration",
				Action: c.pausing(func() error {
					fmt.Println(c.app.cfg.String())
					return nil
				}),
			},
		}

		if err := interactive.ShowMainMenu(options); err != nil {
			if errors.Is(err, interactive.ErrExit) {
				fmt.Println("Goodbye!")
				return
			}
			Logger.Fatal(err)
		}

		fmt.Println()
	}
}

// pausing reports an action error and waits for Enter before returning to the menu.
func (c *console) pausing(action func() error) func() error {
	return func() error {
		if err := action(); err != nil && !errors.Is(err, interactive.ErrAborted) {
			fmt.Printf("\n❌ Error: %v\n", err)
		}
		interactive.PauseForEnter()
		return nil
	}
}

// harnessSession builds the shared session on first use.
func (c *console) harnessSession() (*harnessSession, error) {
	if c.session != nil {
		return c.session, nil
	}

	allowRemote := false
	if err := c.app.cfg.ValidateTarget(); err != nil {
		fmt.Printf("⚠️  %v\n", err)
		if !interactive.Confirm("Target this host anyway?") {
			return nil, err
		}
		allowRemote = true
	}

	session, err := buildHarnessSession(c.app, os.Stdout, true, allowRemote, "")
	if err != nil {
		return nil, err
	}

	c.session = session

	return session, nil
}

func (c *console) showHarnessMenu() error {
	session, err := c.harnessSession()
	if err != nil {
		fmt.Printf("\n❌ Error: %v\n", err)
		interactive.PauseForEnter()
		return nil
	}

	h := session.harness

	for {
		settings := h.Settings()
		state := "Idle"
		if h.Running() {
			state = "Running"
		}

		fmt.Println("\n🧪 Malformed Token Harness")
		fmt.Println("==========================")
		fmt.Printf("Endpoint: %s   Timeout: %s   Secret: %s   State: %s\n",
			settings.Endpoint, settings.Timeout, maskSecret(settings.Secret), state)

		options := []interactive.MenuOption{
			{
				Name:        "Run all",
				Description: "Clear results and run every case",
				Action: c.pausing(func() error {
					return c.runHarnessBatch(session, nil)
				}),
			},
			{
				Name:        "Run selected",
				Description: "Pick cases to run",
				Action: c.pausing(func() error {
					ids, err := interactive.ChooseMany("Cases to run:", caseIDs(h.Cases()))
					if err != nil || len(ids) == 0 {
						return err
					}
					return c.runHarnessBatch(session, ids)
				}),
			},
			{
				Name:        "Run one",
				Description: "Rerun a single case",
				Action: c.pausing(func() error {
					id, err := interactive.Choose("Case:", caseIDs(h.Cases()), "")
					if err != nil {
						return err
					}
					_, err = h.RunByID(context.Background(), id)
					return err
				}),
			},
			{
				Name:        "Show results",
				Description: "Results table and summary",
				Action: c.pausing(func() error {
					session.formatter.PrintResults(h.Rows())
					session.formatter.PrintSummary()
					return nil
				}),
			},
			{
				Name:        "Endpoint",
				Description: "Switch between decode and verify",
				Action: c.pausing(func() error {
					endpoint, err := interactive.Choose("Endpoint:", []string{config.EndpointDecode, config.EndpointVerify}, settings.Endpoint)
					if err != nil {
						return err
					}
					return h.SetEndpoint(endpoint)
				}),
			},
			{
				Name:        "Secret",
				Description: "Secret sent with verify",
				Action: c.pausing(func() error {
					secret, err := interactive.Secret("Secret:")
					if err != nil {
						return err
					}
					h.SetSecret(secret)
					return nil
				}),
			},
			{
				Name:        "Timeout",
				Description: "Per-request timeout",
				Action: c.pausing(func() error {
					value, err := interactive.Input("Timeout (ms):", strconv.FormatInt(settings.Timeout.Milliseconds(), 10), true)
					if err != nil {
						return err
					}
					ms, err := strconv.Atoi(value)
					if err != nil || ms <= 0 {
						return errInvalidTimeout
					}
					h.SetTimeout(time.Duration(ms) * time.Millisecond)
					return nil
				}),
			},
		}

		if err := interactive.ShowMenu("Harness:", "Back", options); err != nil {
			if errors.Is(err, interactive.ErrExit) {
				return nil
			}
			return err
		}
	}
}

// runHarnessBatch runs every case when ids is nil, otherwise the given ids.
func (c *console) runHarnessBatch(session *harnessSession, ids []string) error {
	ctx, cancel := interruptContext(context.Background(), c.app.log)
	defer cancel()

	if err := session.collector.Start(ctx); err != nil {
		return fmt.Errorf("starting metrics collector: %w", err)
	}
	defer func() { _ = session.collector.Stop() }()

	var err error
	if ids == nil {
		_, err = session.harness.RunAll(ctx)
	} else {
		_, err = session.harness.RunSubset(ctx, ids)
	}

	session.formatter.PrintResults(session.harness.Rows())
	session.formatter.PrintSummary()

	return err
}

func caseIDs(cases []harness.MalformedTokenCase) []string {
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		ids = append(ids, c.ID)
	}
	return ids
}

func maskSecret(secret string) string {
	if secret == "" {
		return "(none)"
	}
	return "********"
}

// promptDocument asks for a JSON document and validates it with check.
func promptDocument(message string, def map[string]any, check func(map[string]any) error) (map[string]any, error) {
	text, err := interactive.Document(message, tokenlab.Pretty(def), func(s string) error {
		doc, err := tokenlab.ParseDocument([]byte(s))
		if err != nil {
			return err
		}
		return check(doc)
	})
	if err != nil {
		return nil, err
	}

	return tokenlab.ParseDocument([]byte(text))
}

func (c *console) promptSecret() (string, error) {
	if c.app.cfg.Secret != "" && interactive.Confirm("Use the configured secret?") {
		return c.app.cfg.Secret, nil
	}

	secret, err := interactive.Secret("Secret:")
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", errSecretRequired
	}

	return secret, nil
}

func (c *console) encode() error {
	header, err := promptDocument("Header:", tokenlab.DefaultHeader(), tokenlab.ValidateHeader)
	if err != nil {
		return err
	}

	payload, err := promptDocument("Payload:", tokenlab.DefaultPayload(time.Now()), tokenlab.ValidatePayload)
	if err != nil {
		return err
	}

	secret, err := c.promptSecret()
	if err != nil {
		return err
	}

	ctx := context.Background()

	resp, err := c.app.client.Encode(ctx, backend.EncodeRequest{Header: header, Payload: payload, Secret: secret})
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	f := c.app.formatter(os.Stdout)
	f.PrintSuccess("Token generated successfully")
	fmt.Println(resp.Token)

	f.PrintProgress(crossCheckLine(tokenlab.CrossCheck(resp.Token, secret)), 0)

	if !interactive.Confirm("Save as a test case?") {
		return nil
	}

	name, err := interactive.Input("Name:", "", true)
	if err != nil {
		return err
	}

	description, err := interactive.Input("Description:", "", false)
	if err != nil {
		return err
	}

	err = savedtests.NewManager(c.app.log, c.app.client, 0).Save(ctx, savedtests.SaveInput{
		Name:        name,
		Description: description,
		Token:       resp.Token,
		Header:      header,
		Payload:     payload,
	})
	if err != nil {
		return err
	}

	f.PrintSuccess(fmt.Sprintf("Test %q saved successfully", name))

	return nil
}

func promptToken() (string, error) {
	return interactive.Input("Token:", "", true)
}

func (c *console) decode() error {
	token, err := promptToken()
	if err != nil {
		return err
	}

	decoded, err := c.app.client.Decode(context.Background(), token)
	if err != nil {
		return fmt.Errorf("decoding token: %w", err)
	}

	printDecoded(os.Stdout, c.app, decoded, time.Now())

	return nil
}

func (c *console) verify() error {
	token, err := promptToken()
	if err != nil {
		return err
	}

	secret, err := c.promptSecret()
	if err != nil {
		return err
	}

	resp, err := c.app.client.Verify(context.Background(), token, secret)
	if err != nil {
		return fmt.Errorf("verifying token: %w", err)
	}

	f := c.app.formatter(os.Stdout)
	if resp.ValidSignature {
		f.PrintSuccess("Valid Signature: the token has not been tampered with")
	} else {
		f.PrintError("Invalid Signature: the token may have been tampered with or the secret is wrong", nil)
	}

	f.PrintProgress(crossCheckLine(tokenlab.CrossCheck(token, secret)), 0)

	return nil
}

func (c *console) analyze() error {
	token, err := promptToken()
	if err != nil {
		return err
	}

	result, err := c.app.client.Analyze(context.Background(), token)
	if err != nil {
		return fmt.Errorf("analyzing token: %w", err)
	}

	printAnalysis(os.Stdout, c.app, result)

	return nil
}

func (c *console) showSavedTestsMenu() error {
	manager := savedtests.NewManager(c.app.log, c.app.client, 0)

	for {
		options := []interactive.MenuOption{
			{
				Name:        "List",
				Description: "Show saved test cases",
				Action: c.pausing(func() error {
					tests, err := manager.List(context.Background())
					if err != nil {
						return err
					}
					printSavedTests(os.Stdout, c.app, tests)
					return nil
				}),
			},
			{
				Name:        "Check",
				Description: "Re-decode every saved token",
				Action: c.pausing(func() error {
					results, err := manager.Check(context.Background())
					if err != nil {
						return err
					}
					return printCheckResults(os.Stdout, c.app, results)
				}),
			},
			{
				Name:        "Delete",
				Description: "Remove a saved test case",
				Action:      c.pausing(func() error { return c.deleteSavedTest(manager) }),
			},
		}

		fmt.Println("\n💾 Saved Tests")
		fmt.Println("==============")
		if err := interactive.ShowMenu("Saved tests:", "Back", options); err != nil {
			if errors.Is(err, interactive.ErrExit) {
				return nil
			}
			return err
		}
	}
}

func (c *console) deleteSavedTest(manager *savedtests.Manager) error {
	ctx := context.Background()

	tests, err := manager.List(ctx)
	if err != nil {
		return err
	}
	if len(tests) == 0 {
		fmt.Println("No saved tests.")
		return nil
	}

	labels := make([]string, 0, len(tests))
	byLabel := make(map[string]string, len(tests))
	for _, t := range tests {
		label := fmt.Sprintf("%s (%s)", t.Name, t.ID)
		labels = append(labels, label)
		byLabel[label] = t.ID
	}

	choice, err := interactive.Choose("Test to delete:", labels, "")
	if err != nil {
		return err
	}

	if !interactive.Confirm(fmt.Sprintf("Delete %s?", choice)) {
		fmt.Println("Delete canceled.")
		return nil
	}

	if err := manager.Delete(ctx, byLabel[choice]); err != nil {
		return err
	}

	c.app.formatter(os.Stdout).PrintSuccess("Test deleted")

	return nil
}
