package list

import (
	"fmt"

	"cmon/internal/aws"

	"github.com/spf13/cobra"
)

// NewProfilesCmd creates and returns the profiles command
func NewProfilesCmd() *cobra.Command {
	var credsPath, configPath string
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List available AWS profiles",
		Long: `List all available AWS credential profiles from the system.
These profiles are read from the AWS credentials and config files and are
the names accepted in the AWS.Profiles settings section.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defCreds, defConfig := aws.SharedFiles()
			if credsPath == "" {
				credsPath = defCreds
			}
			if configPath == "" {
				configPath = defConfig
			}
			profiles, err := aws.ListProfilesFrom(credsPath, configPath)
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}

			for _, profile := range profiles {
				fmt.Fprintln(cmd.OutOrStdout(), profile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&credsPath, "credentials-file", "", "AWS shared credentials file (default: ~/.aws/credentials)")
	cmd.Flags().StringVar(&configPath, "config-file", "", "AWS shared config file (default: ~/.aws/config)")
	return cmd
}
