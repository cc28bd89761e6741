package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/apigov/internal/engine"
	"github.com/felixgeelhaar/apigov/internal/report"
)

type checkOptions struct {
	oldRoot   string
	newRoot   string
	overrides string
	config    configFlags
	versions  versionFlags
	out       outputFlags
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Diff two schema trees and enforce the governance policy",
		Long: `Compare the old and new schema corpus, classify every change and decide
whether the breaking ones are approved.

Breaking changes are approved by deprecation (the removed element carried a
deprecation marker and its x-sunset date has been reached) or by an override
entry naming the change's exact path. With --enforcement block any unresolved
breaking change fails the run with exit code 3. When both versions are given a
declared bump smaller than the required one fails with exit code 4.

Examples:
  apigov check --old specs/v1 --new specs/v2
  apigov check --old api-v1.yaml --new api-v2.yaml --overrides overrides.yaml
  apigov check --old specs/v1 --new specs/v2 --enforcement block \
      --current-version 1.4.0 --proposed-version 1.5.0 --format sarif -o apigov.sarif`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.oldRoot, "old", "", "old schema directory or file (required)")
	cmd.Flags().StringVar(&opts.newRoot, "new", "", "new schema directory or file (required)")
	cmd.Flags().StringVar(&opts.overrides, "overrides", "", "override file approving breaking changes")
	opts.config.register(cmd)
	opts.versions.register(cmd)
	opts.out.register(cmd)
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions) error {
	if err := opts.versions.validate(); err != nil {
		return err
	}

	return runMeasured(cmd.Context(), opts.out.metricsFile, "check", func(ctx context.Context) (*engine.Outcome, error) {
		cfg, err := opts.config.resolve(cmd)
		if err != nil {
			return nil, err
		}
		oldC, newC, changes, err := loadCorpora(ctx, opts.oldRoot, opts.newRoot, cfg)
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

		meta := reportMeta("check")
		meta.OldRoot, meta.OldFingerprint = oldC.Root, oldC.Fingerprint
		meta.NewRoot, meta.NewFingerprint = newC.Root, newC.Fingerprint
		r, err := report.Build(out, meta)
		if err != nil {
			return out, err
		}
		if err := opts.out.write(cmd, r); err != nil {
			return out, err
		}
		return out, verdictError(out)
	})
}
