// Package cmd wires the CLI surface: every subcommand plus the shared
// helpers for opening the encrypted config store.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marcus/wfsync/internal/config"
	"github.com/marcus/wfsync/internal/crypto"
	"github.com/marcus/wfsync/internal/input"
	"github.com/marcus/wfsync/internal/output"
)

var version string

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "wfsync",
	Short: "Sync Airtable records into Webflow CMS collections",
	Long: `wfsync - A CLI that keeps Webflow CMS collections in step with Airtable.

Records flow one way, Airtable to Webflow, driven by a state field on each
record. Credentials and sync configurations live in an encrypted local file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		slog.SetDefault(slog.New(handler))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// passphraseEnv lets scripts and CI skip the interactive prompt.
const passphraseEnv = "WFSYNC_PASSPHRASE"

// openStore prompts for the passphrase and decrypts the config store.
func openStore() (*config.Store, error) {
	passphrase := os.Getenv(passphraseEnv)
	if passphrase == "" {
		exists, err := config.Exists()
		if err != nil {
			return nil, err
		}
		prompt := "Passphrase: "
		if !exists {
			output.Info("No config found, creating one.")
			passphrase, err = input.NewPassphrase()
			if err != nil {
				return nil, err
			}
			return config.Load(passphrase)
		}
		passphrase, err = input.Passphrase(prompt)
		if err != nil {
			return nil, err
		}
	}

	store, err := config.Load(passphrase)
	if errors.Is(err, crypto.ErrDecrypt) {
		return nil, fmt.Errorf("wrong passphrase")
	}
	return store, err
}

// historyPath returns the run-history database location.
func historyPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "config", Title: "Configuration Commands:"},
	)
}
