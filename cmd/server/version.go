package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watizat/connect/internal/model"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the help categories",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, c := range model.Categories() {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(categoriesCmd)
}
