// Package cli implements the memoir command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/keepsake-labs/memoir-cli/internal/adapters/driven/config/file"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driving"
	"github.com/keepsake-labs/memoir-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose bool
	dataDir string
)

// Services wired by initServices and shared by all commands.
var (
	configStore       *configfile.ConfigStore
	indexStore        driven.VectorIndexStore
	rawStore          driven.RawDocumentStore
	recallService     driving.RecallService
	augmenterService  driving.Augmenter
	documentService   driving.DocumentService
	completionBackend driven.CompletionService
)

var rootCmd = &cobra.Command{
	Use:   "memoir",
	Short: "Personal memory layer for LLM completions",
	Long: `Memoir indexes your personal text data (chat exports, notes) into a
local vector index and augments LLM completion requests with relevant
memories retrieved from it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" {
			return nil
		}
		return initServices()
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.memoir/data)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func closeServices() error {
	var firstErr error
	if indexStore != nil {
		if err := indexStore.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close index store: %w", err)
		}
	}
	if rawStore != nil {
		if err := rawStore.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close document store: %w", err)
		}
	}
	if completionBackend != nil {
		if err := completionBackend.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close completion backend: %w", err)
		}
	}
	return firstErr
}
