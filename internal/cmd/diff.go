package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/apigov/internal/change"
	goverrors "github.com/felixgeelhaar/apigov/internal/errors"
)

type diffOptions struct {
	oldRoot        string
	newRoot        string
	ignoreOrdering bool
	output         string
	config         configFlags
}

func newDiffCmd() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Print the change records between two schema trees",
		Long: `Compare two schema trees and print the change records as JSON, in the shape
'apigov classify' reads. Records for OpenAPI documents carry classification
hints such as endpoint_removed or property_added.

Examples:
  apigov diff --old specs/v1 --new specs/v2
  apigov diff --old api-v1.yaml --new api-v2.yaml -o changes.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiff(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.oldRoot, "old", "", "old schema directory or file (required)")
	cmd.Flags().StringVar(&opts.newRoot, "new", "", "new schema directory or file (required)")
	cmd.Flags().BoolVar(&opts.ignoreOrdering, "ignore-ordering", true, "compare arrays of scalars as sets (overrides config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the change list to a file instead of stdout")
	cmd.Flags().StringVar(&opts.config.configFile, "config", "", "governance config file")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}

func runDiff(cmd *cobra.Command, opts *diffOptions) error {
	cfg, err := opts.config.resolve(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ignore-ordering") {
		cfg.IgnoreOrdering = opts.ignoreOrdering
	}

	_, _, changes, err := loadCorpora(cmd.Context(), opts.oldRoot, opts.newRoot, cfg)
	if err != nil {
		return err
	}

	data, err := change.Encode(changes)
	if err != nil {
		return fmt.Errorf("encode change records: %w", err)
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, append(data, '\n'), 0644); err != nil {
			return goverrors.NewFileWriteError(opts.output, err)
		}
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
