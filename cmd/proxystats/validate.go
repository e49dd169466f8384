package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samsk/proxystats/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate the configuration file without starting the server.

Reports every validation error found rather than stopping at the first.

Examples:
  # Validate the default config
  proxystats validate

  # Validate a specific file
  proxystats validate --config /etc/proxystats/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				fmt.Printf("  ✗ %s\n", fe.Error())
			}
		}
		return fmt.Errorf("configuration invalid: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
	return nil
}
