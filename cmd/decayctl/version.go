package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/decayscope/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of decayctl",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "decayctl %s\n", version.Current())
		},
	}
}
