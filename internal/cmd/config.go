package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	goverrors "github.com/felixgeelhaar/apigov/internal/errors"
	"github.com/felixgeelhaar/apigov/internal/governance"
	"github.com/felixgeelhaar/apigov/internal/policy"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the governance config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd())
	return cmd
}

type configInitOptions struct {
	output      string
	force       bool
	enforcement string
}

func newConfigInitCmd() *cobra.Command {
	opts := &configInitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Long: `Write a governance config file holding the default settings.

Examples:
  apigov config init
  apigov config init --enforcement block --output ci/apigov.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", policy.DefaultFile, "config file to write")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&opts.enforcement, "enforcement", "", "enforcement mode to write: warn or block")
	return cmd
}

func runConfigInit(cmd *cobra.Command, opts *configInitOptions) error {
	if _, err := os.Stat(opts.output); err == nil && !opts.force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", opts.output)
	}

	cfg := governance.DefaultConfig()
	if opts.enforcement != "" {
		mode, err := governance.ParseEnforcement(opts.enforcement)
		if err != nil {
			return goverrors.NewConfigInvalidError(err)
		}
		cfg.Enforcement = mode
	}

	if err := policy.SaveConfig(cfg, opts.output); err != nil {
		return goverrors.NewFileWriteError(opts.output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Created config file: %s\n", opts.output)
	fmt.Fprintf(cmd.OutOrStdout(), "  enforcement: %s, deprecation window: %d days\n", cfg.Enforcement, cfg.DeprecationWindowDays)
	return nil
}

func newConfigShowCmd() *cobra.Command {
	flags := &configFlags{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective config after file, environment and flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), cfg)
		},
	}
	flags.register(cmd)
	return cmd
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
