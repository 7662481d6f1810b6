// Package main implements the vecdocs CLI for managing pgvector-backed
// document collections.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML configuration file
	configPath string
	// namespace applies to every document command
	namespace string
	// version information
	version = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vecdocs",
		Short: "Pinecone-style document collections on PostgreSQL and pgvector",
		Long: `vecdocs manages document collections stored in PostgreSQL with pgvector.

Configuration is read from the file given with --config and can be
overridden with VECDOCS_* environment variables, e.g.

  VECDOCS_POSTGRES_CONNECTION_HOST=db
  VECDOCS_EMBEDDING_ENDPOINT=http://localhost:8080
  VECDOCS_LOGGER_LEVEL=debug`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (YAML)")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "", "namespace (default \"default\")")

	rootCmd.AddCommand(newCollectionCmd())
	rootCmd.AddCommand(
		newUpsertCmd(),
		newSearchCmd(),
		newFetchCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newStatsCmd(),
	)
	return rootCmd
}
