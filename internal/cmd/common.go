package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/apigov/internal/change"
	"github.com/felixgeelhaar/apigov/internal/corpus"
	"github.com/felixgeelhaar/apigov/internal/diff"
	"github.com/felixgeelhaar/apigov/internal/engine"
	goverrors "github.com/felixgeelhaar/apigov/internal/errors"
	"github.com/felixgeelhaar/apigov/internal/governance"
	"github.com/felixgeelhaar/apigov/internal/log"
	"github.com/felixgeelhaar/apigov/internal/metrics"
	"github.com/felixgeelhaar/apigov/internal/policy"
	"github.com/felixgeelhaar/apigov/internal/report"
	"github.com/felixgeelhaar/apigov/internal/telemetry"
	"github.com/felixgeelhaar/apigov/internal/version"
)

// configFlags select and adjust the governance config.
type configFlags struct {
	configFile  string
	enforcement string
	windowDays  int
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configFile, "config", "", "governance config file (default "+policy.DefaultFile+" when present)")
	cmd.Flags().StringVar(&f.enforcement, "enforcement", "", "enforcement mode: warn or block (overrides config and "+policy.EnvEnforcement+")")
	cmd.Flags().IntVar(&f.windowDays, "window-days", 0, "deprecation window in days (overrides config and "+policy.EnvWindowDays+")")
}

// resolve builds the effective config: defaults, file, environment, flags.
func (f *configFlags) resolve(cmd *cobra.Command) (governance.Config, error) {
	path := f.configFile
	if path == "" {
		path = policy.DiscoverConfig()
	}

	flags := policy.Flags{Enforcement: f.enforcement}
	if cmd.Flags().Changed("window-days") {
		days := f.windowDays
		flags.WindowDays = &days
	}

	cfg, err := policy.Resolve(path, os.Getenv, flags)
	switch {
	case err == nil:
		log.DefaultLogger().Debug("governance config resolved",
			"file", path,
			"enforcement", cfg.Enforcement,
			"window_days", cfg.DeprecationWindowDays)
		return cfg, nil
	case errors.Is(err, fs.ErrNotExist):
		return governance.Config{}, goverrors.NewFileNotFoundError(path)
	case errors.Is(err, governance.ErrInvalidConfig):
		return governance.Config{}, goverrors.NewConfigInvalidError(err)
	default:
		return governance.Config{}, goverrors.NewConfigParseError(path, err)
	}
}

// outputFlags control how a report is rendered and where it goes.
type outputFlags struct {
	format      string
	output      string
	noColor     bool
	compact     bool
	metricsFile string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "output format (text, json, yaml, sarif)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colored text output")
	cmd.Flags().BoolVar(&f.compact, "compact", false, "compact JSON and SARIF output")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics for this run to a textfile")
}

// write renders r to the configured destination.
func (f *outputFlags) write(cmd *cobra.Command, r *report.Report) error {
	opts := &report.FormatterOptions{
		Writer:  cmd.OutOrStdout(),
		NoColor: f.noColor || os.Getenv("NO_COLOR") != "",
		Compact: f.compact,
	}

	var file *os.File
	if f.output != "" {
		var err error
		file, err = os.Create(f.output)
		if err != nil {
			return goverrors.NewFileWriteError(f.output, err)
		}
		defer file.Close()
		opts.Writer = file
		opts.NoColor = true
	}

	formatter, err := report.NewFormatter(f.format, opts)
	if err != nil {
		return err
	}
	if err := formatter.Format(r); err != nil {
		if f.output != "" {
			return goverrors.NewFileWriteError(f.output, err)
		}
		return err
	}
	if file != nil {
		if err := file.Close(); err != nil {
			return goverrors.NewFileWriteError(f.output, err)
		}
	}
	return nil
}

// versionFlags carry the release being checked.
type versionFlags struct {
	current  string
	proposed string
}

func (f *versionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.current, "current-version", "", "currently released API version")
	cmd.Flags().StringVar(&f.proposed, "proposed-version", "", "version the new schemas will be released as")
}

func (f *versionFlags) validate() error {
	if (f.current == "") != (f.proposed == "") {
		return fmt.Errorf("--current-version and --proposed-version must be given together")
	}
	return nil
}

// loadCorpora loads both schema trees and diffs them.
func loadCorpora(ctx context.Context, oldRoot, newRoot string, cfg governance.Config) (*corpus.Corpus, *corpus.Corpus, []change.Record, error) {
	logger := log.DefaultLogger()

	oldC, err := loadCorpus(ctx, oldRoot)
	if err != nil {
		return nil, nil, nil, err
	}
	newC, err := loadCorpus(ctx, newRoot)
	if err != nil {
		return nil, nil, nil, err
	}

	_, span := telemetry.StartStageSpan(ctx, "diff")
	changes, err := diff.CompareCorpus(oldC, newC, diff.Options{IgnoreOrdering: cfg.IgnoreOrdering})
	if err != nil {
		err = goverrors.Wrap(goverrors.ErrCodeCorpusMismatch, "schemas cannot be compared", err).
			WithSuggestion("Both sides must hold documents of the same shape under the same file names")
		telemetry.End(span, err)
		return nil, nil, nil, err
	}
	telemetry.End(span, nil, attribute.Int("changes", len(changes)))
	logger.Info("schemas compared",
		"old_documents", oldC.Len(),
		"new_documents", newC.Len(),
		"changes", len(changes))
	return oldC, newC, changes, nil
}

func loadCorpus(ctx context.Context, root string) (c *corpus.Corpus, err error) {
	ctx, span := telemetry.StartStageSpan(ctx, "load", attribute.String("root", root))
	defer func() {
		if c != nil {
			telemetry.End(span, nil, attribute.Int("documents", c.Len()), attribute.String("fingerprint", c.Fingerprint))
			return
		}
		telemetry.End(span, err)
	}()

	c, err = corpus.Load(ctx, root)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goverrors.New(goverrors.ErrCodeCorpusNotFound, fmt.Sprintf("schema path not found: %s", root)).
				WithSuggestion("Pass a directory of *.yaml, *.yml or *.json files, or a single schema file")
		}
		return nil, goverrors.NewCorpusError(root, err)
	}
	log.DefaultLogger().Debug("schemas loaded", "root", root, "documents", c.Len(), "fingerprint", c.Fingerprint)
	return c, nil
}

// readChanges decodes a change file, or stdin when path is "-".
func readChanges(cmd *cobra.Command, path string) ([]change.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goverrors.NewFileNotFoundError(path)
		}
		return nil, goverrors.NewChangeParseError(path, err)
	}

	records, err := change.Decode(data)
	if err != nil {
		return nil, goverrors.NewChangeMalformedError(err)
	}
	return records, nil
}

func loadOverrides(path string) ([]governance.OverrideEntry, error) {
	entries, err := policy.LoadOverrides(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goverrors.New(goverrors.ErrCodeOverrideNotFound, fmt.Sprintf("overrides file not found: %s", path))
		}
		return nil, goverrors.NewOverrideParseError(path, err)
	}
	return entries, nil
}

// evaluate runs the engine and maps its failures to coded errors.
func evaluate(in engine.Input) (*engine.Outcome, error) {
	out, err := engine.Run(in)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, change.ErrMalformedChange):
		return nil, goverrors.NewChangeMalformedError(err)
	case errors.Is(err, governance.ErrInvalidConfig):
		return nil, goverrors.NewConfigInvalidError(err)
	default:
		return nil, goverrors.NewVersionInvalidError(err)
	}
}

// logOutcome summarizes a run at info level and each rejected override at
// warn level.
func logOutcome(ctx context.Context, out *engine.Outcome) {
	logger := log.DefaultLogger()
	for _, rej := range out.Rejected {
		logger.Warn("override entry rejected", "issue", rej.Entry.IssueNumber, "reason", rej.Reason)
	}
	counts := out.Classification.Counts()
	logger.InfoContext(ctx, "governance run finished",
		"enforcement", out.Config.Enforcement,
		"verdict", out.Decision.Verdict,
		"breaking", counts.Breaking,
		"additive", counts.Additive,
		"docs_only", counts.DocsOnly,
		"refactor", counts.Refactor,
		"approved", len(out.Approvals),
		"unresolved", len(out.Decision.Unresolved),
		"bump", out.Bump)
}

// verdictError turns a failed outcome into the error that sets the exit code.
func verdictError(out *engine.Outcome) error {
	if !out.Decision.Passed() {
		return goverrors.NewGovViolationError(len(out.Decision.Unresolved))
	}
	if v := out.Version; v != nil && !v.Consistent {
		return goverrors.NewVersionInconsistentError(v.Declared.String(), v.Required.String(), v.Suggested)
	}
	return nil
}

// runMeasured runs fn under a command span and, when path is set, writes
// run metrics there. The textfile is written even when fn fails so that
// errors are counted.
func runMeasured(ctx context.Context, path, command string, fn func(context.Context) (*engine.Outcome, error)) error {
	ctx, span := telemetry.StartCommandSpan(ctx, command)
	start := time.Now()
	out, err := fn(ctx)

	var attrs []attribute.KeyValue
	if out != nil {
		counts := out.Classification.Counts()
		attrs = append(attrs,
			attribute.String("enforcement", string(out.Config.Enforcement)),
			attribute.String("verdict", string(out.Decision.Verdict)),
			attribute.String("bump", out.Bump.String()),
			attribute.Int("breaking", counts.Breaking),
			attribute.Int("unresolved", len(out.Decision.Unresolved)),
		)
	}
	if code, ok := goverrors.CodeOf(err); ok {
		attrs = append(attrs, attribute.String("error_code", string(code)))
	}
	telemetry.End(span, err, attrs...)

	if path == "" {
		return err
	}

	reg, m := metrics.NewRegistry()
	if out != nil {
		m.ObserveOutcome(command, out, time.Since(start))
	}
	m.RecordError(err)
	if werr := metrics.WriteTextfile(reg, path); werr != nil {
		log.DefaultLogger().WithError(werr).Warn("metrics not written", "path", path)
	}
	return err
}

func reportMeta(command string) report.Meta {
	return report.Meta{
		GeneratedAt: now(),
		Command:     command,
		ToolVersion: version.GetInfo().Version,
	}
}
