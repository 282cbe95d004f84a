package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/shimgen/config"
	"github.com/teranos/shimgen/display"
)

var (
	configValidate bool
	configWrite    bool
)

// ConfigCmd prints the effective configuration
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration shimgen would use, after merging defaults,
config files and SHIMGEN_* environment variables, as TOML.

Examples:
  shimgen config                  # Show effective configuration
  shimgen config --validate       # Fail if the configuration is unusable
  shimgen config --write          # Save it to ./shimgen.toml`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	ConfigCmd.Flags().BoolVar(&configValidate, "validate", false, "Validate the configuration")
	ConfigCmd.Flags().BoolVar(&configWrite, "write", false, "Write the configuration to "+config.ProjectFileName)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if configValidate {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if configWrite {
		if err := cfg.WriteFile(config.ProjectFileName); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", config.ProjectFileName)
		return nil
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), cfg)
	}
	out, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
