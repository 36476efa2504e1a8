package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ember-nexus/nexus-search/internal/build"
)

// NewVersionCommand returns the command to get the nexus-search version
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Return the nexus-search version",
		Long:  "Return the nexus-search version, build date and commit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "nexus-search version %s (built %s, commit %s)\n", build.Version, build.Date, build.Commit)
			return err
		},
	}
}
