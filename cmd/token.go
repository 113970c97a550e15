package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/backend"
	"github.com/ethpandaops/jwtprobe/internal/harness/table"
	"github.com/ethpandaops/jwtprobe/internal/savedtests"
	"github.com/ethpandaops/jwtprobe/internal/tokenlab"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	errSecretRequired   = errors.New("a secret is required (--secret, '-' to prompt, or JWTPROBE_SECRET)")
	errTokenRequired    = errors.New("a token is required")
	errUnsupportedAlg   = errors.New("unsupported algorithm")
	errInvalidSignature = errors.New("signature is not valid")
)

var (
	// Token command flags
	encodeHeaderFile  string
	encodePayloadFile string
	encodeAlg         string
	encodeSaveName    string
	encodeDescription string
	tokenSecret       string
	verifyLocal       bool
	analyzeRaw        bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Sign a header and payload through the backend",
	Long: `Build a token from a header and payload document (JSON or JSONC) and let the
backend sign it. Without documents, the default header {"alg":"HS256","typ":"JWT"}
and payload {"sub":"123","name":"nicolas","iat":<now>} are used.

Examples:
  jwtprobe encode --secret mysecret
  jwtprobe encode --header header.jsonc --payload claims.jsonc --alg HS512 --secret -
  jwtprobe encode --secret mysecret --save "default claims" --description "baseline"`,
	Args: cobra.NoArgs,
	RunE: runEncode,
}

var decodeCmd = &cobra.Command{
	Use:   "decode [token|-]",
	Short: "Decode a token through the backend",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDecode,
}

var verifyCmd = &cobra.Command{
	Use:   "verify [token|-]",
	Short: "Verify a token signature through the backend",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVerify,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [token|-]",
	Short: "Run the backend lexical, syntactic and semantic analysis",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	encodeCmd.Flags().StringVar(&encodeHeaderFile, "header", "", "Header document file (JSON or JSONC, '-' for stdin)")
	encodeCmd.Flags().StringVar(&encodePayloadFile, "payload", "", "Payload document file (JSON or JSONC, '-' for stdin)")
	encodeCmd.Flags().StringVar(&encodeAlg, "alg", "", "Algorithm: HS256, HS384 or HS512 (overrides the header)")
	encodeCmd.Flags().StringVar(&encodeSaveName, "save", "", "Save the signed token as a named test case")
	encodeCmd.Flags().StringVar(&encodeDescription, "description", "", "Description of the saved test case")
	encodeCmd.Flags().StringVar(&tokenSecret, "secret", "", "Signing secret; '-' prompts without echo (default from JWTPROBE_SECRET)")

	verifyCmd.Flags().StringVar(&tokenSecret, "secret", "", "Verification secret; '-' prompts without echo (default from JWTPROBE_SECRET)")
	verifyCmd.Flags().BoolVar(&verifyLocal, "local", false, "Also check the HMAC signature locally")

	analyzeCmd.Flags().BoolVar(&analyzeRaw, "json", false, "Print the raw analysis as JSON")

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// loadDocument reads a document file, or returns def when path is empty.
func loadDocument(path string, def map[string]any) (map[string]any, error) {
	if path == "" {
		return def, nil
	}

	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	doc, err := tokenlab.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return doc, nil
}

func runEncode(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	header, err := loadDocument(encodeHeaderFile, tokenlab.DefaultHeader())
	if err != nil {
		return err
	}

	payload, err := loadDocument(encodePayloadFile, tokenlab.DefaultPayload(time.Now()))
	if err != nil {
		return err
	}

	if encodeAlg != "" {
		if !tokenlab.IsAlgorithmAllowed(encodeAlg) {
			return fmt.Errorf("%w: %s (allowed: %s)", errUnsupportedAlg, encodeAlg, strings.Join(tokenlab.AllowedAlgorithms, ", "))
		}
		header["alg"] = encodeAlg
	}

	if err := tokenlab.ValidateHeader(header); err != nil {
		return err
	}

	if err := tokenlab.ValidatePayload(payload); err != nil {
		return err
	}

	secret, err := resolveSecret(tokenSecret, a.cfg.Secret)
	if err != nil {
		return err
	}
	if secret == "" {
		return errSecretRequired
	}

	resp, err := a.client.Encode(cmd.Context(), backend.EncodeRequest{
		Header:  header,
		Payload: payload,
		Secret:  secret,
	})
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	out := cmd.OutOrStdout()
	f := a.formatter(out)

	f.PrintSuccess("Token generated successfully")
	fmt.Fprintln(out, resp.Token)

	f.PrintProgress(crossCheckLine(tokenlab.CrossCheck(resp.Token, secret)), 0)

	if encodeSaveName == "" {
		return nil
	}

	manager := savedtests.NewManager(a.log, a.client, 0)
	if err := manager.Save(cmd.Context(), savedtests.SaveInput{
		Name:        encodeSaveName,
		Description: encodeDescription,
		Token:       resp.Token,
		Header:      header,
		Payload:     payload,
	}); err != nil {
		return err
	}

	f.PrintSuccess(fmt.Sprintf("Test %q saved successfully", encodeSaveName))

	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
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

	printDecoded(cmd.OutOrStdout(), a, decoded, time.Now())

	return nil
}

func printDecoded(w io.Writer, a *app, decoded *backend.DecodeResponse, now time.Time) {
	f := a.formatter(w)

	f.PrintPhase("Header")
	fmt.Fprintln(w, tokenlab.Pretty(decoded.Header))

	f.PrintPhase("Payload")
	fmt.Fprintln(w, tokenlab.Pretty(decoded.Payload))

	if decoded.Signature != "" {
		f.PrintPhase("Signature")
		fmt.Fprintln(w, decoded.Signature)
	}

	expiry := tokenlab.Expiry(decoded.Payload, now)
	if expiry == nil {
		return
	}

	expires := "Expires: " + expiry.ExpiresAt.Local().Format(time.RFC1123)
	if expiry.Expired {
		f.PrintError("Token Expired", nil)
		f.PrintProgress(expires, 0)
		return
	}

	f.PrintSuccess("Token Valid")
	f.PrintProgress(expires, 0)
}

func runVerify(cmd *cobra.Command, args []string) error {
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

	secret, err := resolveSecret(tokenSecret, a.cfg.Secret)
	if err != nil {
		return err
	}
	if secret == "" {
		return errSecretRequired
	}

	resp, err := a.client.Verify(cmd.Context(), token, secret)
	if err != nil {
		return fmt.Errorf("verifying token: %w", err)
	}

	out := cmd.OutOrStdout()
	f := a.formatter(out)

	if resp.ValidSignature {
		f.PrintSuccess("Valid Signature: the token has not been tampered with")
	} else {
		f.PrintError("Invalid Signature: the token may have been tampered with or the secret is wrong", nil)
	}

	if verifyLocal {
		check := tokenlab.CrossCheck(token, secret)
		line := crossCheckLine(check)
		if check.SignatureValid() != resp.ValidSignature {
			f.PrintWarning(line + " (disagrees with backend)")
		} else {
			f.PrintProgress(line, 0)
		}
	}

	if !resp.ValidSignature {
		return errInvalidSignature
	}

	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	result, err := a.client.Analyze(cmd.Context(), token)
	if err != nil {
		return fmt.Errorf("analyzing token: %w", err)
	}

	out := cmd.OutOrStdout()
	if analyzeRaw {
		fmt.Fprintln(out, tokenlab.Pretty(result))
		return nil
	}

	printAnalysis(out, a, result)

	return nil
}

func printAnalysis(w io.Writer, a *app, result *backend.AnalyzeResponse) {
	var (
		f        = a.formatter(w)
		colors   = table.NewColorHelper()
		renderer = table.NewRenderer(a.log)
		phases   = result.Phases
	)

	verdict := "Invalid JWT Token"
	if result.OverallSuccess {
		verdict = "Valid JWT Token"
		f.PrintSuccess(result.Message)
	} else {
		f.PrintError(result.Message, nil)
	}
	fmt.Fprintln(w, colors.Bold(verdict))

	f.PrintPhase("Phase 1: Lexical Analysis - " + phaseStatus(phases.Lexical.Success))
	fmt.Fprintf(w, "Tokens found: %d\n", phases.Lexical.TokenCount)
	fmt.Fprintf(w, "Alphabet:     %s (%d symbols)\n", phases.Lexical.Alphabet.Name, phases.Lexical.Alphabet.Size)
	if phases.Lexical.Alphabet.Regex != "" {
		fmt.Fprintf(w, "Pattern:      %s\n", phases.Lexical.Alphabet.Regex)
	}
	if len(phases.Lexical.Tokens) > 0 {
		rows := make([][]string, 0, len(phases.Lexical.Tokens))
		for _, tok := range phases.Lexical.Tokens {
			rows = append(rows, []string{fmt.Sprintf("%d", tok.Position), tok.Type, tok.Value})
		}
		renderer.RenderToWriter(w, []string{"Position", "Type", "Value"}, rows,
			table.WithBorder(false),
			table.WithColumnAlignment(tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT),
		)
	}
	printPhaseErrors(f, phases.Lexical.Errors)

	f.PrintPhase("Phase 2: Syntactic Analysis - " + phaseStatus(phases.Syntactic.Success))
	if phases.Syntactic.ParseTree != nil {
		fmt.Fprint(w, tokenlab.RenderParseTree(phases.Syntactic.ParseTree, 0))
	}
	printPhaseErrors(f, phases.Syntactic.Errors)

	f.PrintPhase("Phase 3: Semantic Analysis - " + phaseStatus(phases.Semantic.Success))
	fmt.Fprintf(w, "Total claims: %d (header %d, payload %d)\n",
		phases.Semantic.TotalClaims(),
		phases.Semantic.ClaimsInScope("header"),
		phases.Semantic.ClaimsInScope("payload"),
	)
	if len(phases.Semantic.SymbolTable) > 0 {
		rows := make([][]string, 0, len(phases.Semantic.SymbolTable))
		for _, sym := range phases.Semantic.SymbolTable {
			rows = append(rows, []string{sym.Name, fmt.Sprintf("%v", sym.Value), sym.Type, sym.Scope})
		}
		renderer.RenderToWriter(w, []string{"Name", "Value", "Type", "Scope"}, rows)
	}
	printPhaseErrors(f, phases.Semantic.Errors)
	for _, warning := range phases.Semantic.Warnings {
		f.PrintWarning("warning: " + warning)
	}

	if result.Decoded != nil {
		printDecoded(w, a, result.Decoded, time.Now())
	}
}

func crossCheckLine(check tokenlab.CrossCheckResult) string {
	line := fmt.Sprintf("local check (%s): %s", check.Algorithm, check.Status)
	if check.Detail != "" {
		line += " - " + check.Detail
	}
	return line
}

func phaseStatus(success bool) string {
	if success {
		return "Successful"
	}
	return "Failed"
}

func printPhaseErrors(f interface{ PrintError(string, error) }, errs []string) {
	for _, e := range errs {
		f.PrintError("error: "+e, nil)
	}
}
