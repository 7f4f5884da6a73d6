package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telimanlogistique/telimanshare/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the TelimanShare configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  telimanshare config validate

  # Validate specific config file
  telimanshare config validate --config /etc/telimanshare/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	// Load and validate configuration
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Determine path for display
	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	// Additional validation checks
	var warnings []string

	// Check JWT secret is configured
	if !cfg.API.HasJWTSecret() {
		warnings = append(warnings, "JWT secret not configured - API authentication will fail")
	}

	// Check the bucket is set when running against S3
	if cfg.Storage.Objects.Type == "s3" && cfg.Storage.Objects.S3.Bucket == "" {
		warnings = append(warnings, "S3 bucket not configured")
	}

	if !cfg.Email.Enabled {
		warnings = append(warnings, "Email notifications disabled - signups will not notify the admin")
	}

	// Print results
	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Object store:    %s\n", cfg.Storage.Objects.Type)
	fmt.Printf("  Metadata store:  %s\n", cfg.Storage.Meta.Type)
	fmt.Printf("  Accounts:        %s\n", cfg.Accounts.Type)
	fmt.Printf("  API port:        %d\n", cfg.API.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
