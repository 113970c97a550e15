// Package main is the entry point for the jwtprobe application
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethpandaops/jwtprobe/cmd"
	"github.com/joho/godotenv"
)

const (
	envFlag      = "--env"
	envFlagEqual = "--env="
)

func main() {
	envFile, runMenu := parseArgs(os.Args)

	if !runMenu {
		// Cobra handles --env itself
		cmd.Execute()
		return
	}

	if err := loadEnvFile(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading env file: %v\n", err)
		os.Exit(1)
	}

	// LOG_LEVEL may come from the env file
	cmd.InitLogger()
	cmd.RunInteractive()
}

// parseArgs extracts the env file and reports whether only --env (or nothing)
// was given, which selects the interactive menu.
func parseArgs(args []string) (envFile string, runMenu bool) {
	for i, arg := range args {
		if arg == envFlag && i+1 < len(args) {
			envFile = args[i+1]
			break
		}
		if strings.HasPrefix(arg, envFlagEqual) {
			envFile = arg[len(envFlagEqual):]
			break
		}
	}

	switch len(args) {
	case 1:
		return envFile, true
	case 2:
		if args[1] == envFlag {
			fmt.Fprintln(os.Stderr, "Error: --env flag requires a value")
			os.Exit(1)
		}
		return envFile, strings.HasPrefix(args[1], envFlagEqual)
	case 3:
		return envFile, args[1] == envFlag
	default:
		return envFile, false
	}
}

// loadEnvFile loads the given env file, tolerating a missing default .env.
func loadEnvFile(file string) error {
	if file == "" {
		file = ".env"
	}

	if err := godotenv.Load(file); err != nil {
		if file == ".env" && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load env file '%s': %w", file, err)
	}

	return nil
}
