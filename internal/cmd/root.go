package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/apigov/internal/log"
	"github.com/felixgeelhaar/apigov/internal/telemetry"
	"github.com/felixgeelhaar/apigov/internal/version"
)

// shutdownTimeout bounds the final span export.
const shutdownTimeout = 5 * time.Second

// now is the clock used for deprecation and override expiry checks.
var now = func() time.Time { return time.Now().UTC() }

type globalOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "apigov",
		Short: "API contract governance for OpenAPI schemas",
		Long: `apigov compares two versions of an API schema corpus, classifies every change,
and decides whether the breaking ones are allowed.

A breaking change passes when the removed element was deprecated with a sunset
date that has been reached, or when an override entry with an issue number and
an approver names its exact path. In warn mode unresolved changes are reported;
in block mode they fail the run.

Examples:
  apigov check --old specs/v1 --new specs/v2
  apigov check --old specs/v1 --new specs/v2 --enforcement block --format sarif
  apigov diff --old specs/v1 --new specs/v2 > changes.json
  apigov classify --changes changes.json --overrides overrides.yaml
  apigov bump --changes changes.json --current-version 1.4.0`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.setupLogging(cmd.ErrOrStderr()); err != nil {
				return err
			}
			return setupTracing(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(
		newCheckCmd(),
		newClassifyCmd(),
		newDiffCmd(),
		newBumpCmd(),
		newOverridesCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func (o *globalOptions) setupLogging(w io.Writer) error {
	level, err := log.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	format, err := log.ParseFormat(o.logFormat)
	if err != nil {
		return err
	}

	cfg := log.DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Output = w
	cfg.ServiceVersion = version.GetInfo().Version
	log.SetDefaultLogger(log.New(cfg))
	return nil
}

func setupTracing(ctx context.Context) error {
	cfg, err := telemetry.FromEnv(os.Getenv)
	if err != nil {
		return err
	}
	cfg.ServiceVersion = version.GetInfo().Version
	if _, err := telemetry.InitProvider(ctx, cfg); err != nil {
		return err
	}
	if cfg.Enabled {
		log.DefaultLogger().Debug("tracing enabled", "endpoint", cfg.Endpoint, "sample_rate", cfg.SampleRate)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// interrupt.
func ExecuteContext(ctx context.Context) error {
	err := newRootCmd().ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if serr := telemetry.Shutdown(shutdownCtx); serr != nil {
		log.DefaultLogger().WithError(serr).Warn("spans not exported")
	}
	return err
}
