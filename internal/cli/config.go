package cli

import (
	"fmt"

	"archdocs/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.resolvedConfigPath()
			if config.Exists(path) && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			a.logger.Info("Wrote default configuration", "path", path)
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓ Configuration written to "+path))
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(
		initCmd,
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Long:  "Print the configuration after defaults and environment overrides are applied.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := a.loadConfig()
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return fmt.Errorf("failed to encode config: %w", err)
				}
				return enc.Close()
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), a.resolvedConfigPath())
			},
		},
	)
	return cmd
}

func (a *app) resolvedConfigPath() string {
	if a.configPath != "" {
		return a.configPath
	}
	return config.ConfigPath()
}
