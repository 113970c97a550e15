package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethpandaops/jwtprobe/internal/backend"
	"github.com/ethpandaops/jwtprobe/internal/config"
	"github.com/ethpandaops/jwtprobe/internal/harness/output"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("no terminal available for interactive secret prompt (set JWTPROBE_SECRET or pass --secret VALUE)")

// promptSecretValue asks for the secret on the terminal when passed to --secret.
const promptSecretValue = "-"

// app bundles what every command needs once configuration is resolved.
type app struct {
	cfg    *config.AppConfig
	log    *logrus.Logger
	client *backend.Client
}

func newApp() (*app, error) {
	cfg, err := config.Load(apiBaseOverride)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := newLogger(verbose)

	log.WithFields(logrus.Fields{
		"api_base": cfg.APIBase,
		"source":   cfg.APIBaseSource,
	}).Debug("configuration resolved")

	return &app{
		cfg:    cfg,
		log:    log,
		client: backend.NewClient(log, cfg.APIBase),
	}, nil
}

func (a *app) formatter(w io.Writer) output.Formatter {
	return output.NewFormatter(a.log, w, nil)
}

// interruptContext returns a context cancelled on Ctrl+C or SIGTERM so a
// running batch can stop after its in-flight request.
func interruptContext(parent context.Context, log logrus.FieldLogger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)

		select {
		case <-sigChan:
			log.Warn("Received interrupt signal, stopping after the current request...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// resolveSecret returns flagValue, prompting without echo when it is "-",
// and falls back to the configured secret when the flag is empty.
func resolveSecret(flagValue, configured string) (string, error) {
	switch flagValue {
	case "":
		return configured, nil
	case promptSecretValue:
		return readSecret("Secret: ")
	default:
		return flagValue, nil
	}
}

func readSecret(prompt string) (string, error) {
	stdinFileDescriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFileDescriptor) {
		return "", errNoTerminal
	}

	fmt.Fprint(os.Stderr, prompt)
	secretBytes, err := term.ReadPassword(stdinFileDescriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}

	return strings.TrimRight(string(secretBytes), "\r\n"), nil
}

// readInput returns the content of a file argument, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: operator supplied path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return data, nil
}

// tokenArg returns the token given as argument, or reads it from stdin
// when the argument is "-" or missing.
func tokenArg(args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}
