// Package main provides the giteastats command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "giteastats",
		Short: "Commit activity statistics for a Gitea instance",
		Long: `giteastats aggregates recent commit activity per user and per repository
across every repository visible to the configured Gitea token.

Configuration is read from the environment and an optional .env file
(URL_GITEA_HOST, URL_GITEA_API_KEY, ...), the same as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newCollectCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
