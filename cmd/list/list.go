package list

import (
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd(subs ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agent capabilities and credentials",
		Long: `List what this agent can do and the credentials it can use.
Each subcommand prints one item per line on standard output.`,
	}

	// Add subcommands
	for _, sub := range subs {
		cmd.AddCommand(sub)
	}

	return cmd
}
