package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/apigov/internal/engine"
	"github.com/felixgeelhaar/apigov/internal/report"
)

type classifyOptions struct {
	changes   string
	overrides string
	config    configFlags
	versions  versionFlags
	out       outputFlags
}

func newClassifyCmd() *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Run governance over an externally produced change list",
		Long: `Read change records from a JSON or YAML file and run the same governance
evaluation as 'check', without diffing schemas.

The file holds a list of records, or an object with a "changes" list. Each
record has a type (add, remove, modify), a path, oldValue and/or newValue, and
an optional classificationHint. Use "-" to read from stdin.

Examples:
  apigov classify --changes changes.json
  apigov diff --old specs/v1 --new specs/v2 | apigov classify --changes - --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassify(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.changes, "changes", "", "change record file, or - for stdin (required)")
	cmd.Flags().StringVar(&opts.overrides, "overrides", "", "override file approving breaking changes")
	opts.config.register(cmd)
	opts.versions.register(cmd)
	opts.out.register(cmd)
	_ = cmd.MarkFlagRequired("changes")

	return cmd
}

func runClassify(cmd *cobra.Command, opts *classifyOptions) error {
	if err := opts.versions.validate(); err != nil {
		return err
	}

	return runMeasured(cmd.Context(), opts.out.metricsFile, "classify", func(ctx context.Context) (*engine.Outcome, error) {
		cfg, err := opts.config.resolve(cmd)
		if err != nil {
			return nil, err
		}
		changes, err := readChanges(cmd, opts.changes)
		if err != nil {
			return nil, err
		}
		overrides, err := loadOverrides(opts.overrides)
		if err != nil {
			return nil, err
		}

		out, err := evaluate(engine.Input{
			Changes:         changes,
			Config:          cfg,
			Overrides:       overrides,
			Now:             now(),
			CurrentVersion:  opts.versions.current,
			ProposedVersion: opts.versions.proposed,
		})
		if err != nil {
			return nil, err
		}
		logOutcome(ctx, out)

		r, err := report.Build(out, reportMeta("classify"))
		if err != nil {
			return out, err
		}
		if err := opts.out.write(cmd, r); err != nil {
			return out, err
		}
		return out, verdictError(out)
	})
}
