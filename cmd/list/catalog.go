package list

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Entry is one registered model or service.
type Entry struct {
	Name        string
	Description string
}

// NewCatalogCmd creates a command listing the entries returned by entries
func NewCatalogCmd(use, what string, entries func() []Entry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: "List available " + what,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			list := entries()
			if len(list) == 0 {
				fmt.Fprintf(out, "No %s registered\n", what)
				return nil
			}

			name := color.New(color.Bold)
			fmt.Fprintf(out, "Available %s:\n", what)
			for _, e := range list {
				fmt.Fprintf(out, "  - %s  %s\n", name.Sprintf("%-12s", e.Name), e.Description)
			}
			return nil
		},
	}

	return cmd
}
