package version

import (
	"fmt"

	"cmon/internal/version"

	"github.com/spf13/cobra"
)

// NewVersionCmd creates and returns the version command for agent
func NewVersionCmd(agent string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Long: fmt.Sprintf(`Print the version information for the %s agent.
This includes the version number, git commit hash, build time, and Go version.`, agent),
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", agent, version.String())
		},
	}

	return cmd
}
