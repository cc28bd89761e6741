package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/apigov/internal/change"
	goverrors "github.com/felixgeelhaar/apigov/internal/errors"
	"github.com/felixgeelhaar/apigov/internal/governance"
)

type bumpOptions struct {
	changes        string
	oldRoot        string
	newRoot        string
	currentVersion string
	json           bool
	config         configFlags
}

// bumpResult is the --json output of the bump command.
type bumpResult struct {
	Bump           governance.Bump   `json:"bump"`
	Counts         governance.Counts `json:"counts"`
	CurrentVersion string            `json:"currentVersion,omitempty"`
	NextVersion    string            `json:"nextVersion,omitempty"`
}

func newBumpCmd() *cobra.Command {
	opts := &bumpOptions{}

	cmd := &cobra.Command{
		Use:   "bump",
		Short: "Print the semantic version bump the changes require",
		Long: `Classify a change list and print the smallest version bump that covers it:
major for any breaking change, minor for additions, patch for documentation
and internal-only edits, none for no changes.

Breaking changes count toward the bump even when they are approved.

Examples:
  apigov bump --changes changes.json
  apigov bump --old specs/v1 --new specs/v2 --current-version 1.4.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBump(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.changes, "changes", "", "change record file, or - for stdin")
	cmd.Flags().StringVar(&opts.oldRoot, "old", "", "old schema directory or file")
	cmd.Flags().StringVar(&opts.newRoot, "new", "", "new schema directory or file")
	cmd.Flags().StringVar(&opts.currentVersion, "current-version", "", "currently released version; prints the next one")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output as JSON")
	cmd.Flags().StringVar(&opts.config.configFile, "config", "", "governance config file")
	cmd.MarkFlagsMutuallyExclusive("changes", "old")
	cmd.MarkFlagsMutuallyExclusive("changes", "new")
	cmd.MarkFlagsRequiredTogether("old", "new")
	cmd.MarkFlagsOneRequired("changes", "old")

	return cmd
}

func runBump(cmd *cobra.Command, opts *bumpOptions) error {
	cfg, err := opts.config.resolve(cmd)
	if err != nil {
		return err
	}

	var changes []change.Record
	if opts.changes != "" {
		changes, err = readChanges(cmd, opts.changes)
	} else {
		_, _, changes, err = loadCorpora(cmd.Context(), opts.oldRoot, opts.newRoot, cfg)
	}
	if err != nil {
		return err
	}
	if err := change.ValidateAll(changes); err != nil {
		return goverrors.NewChangeMalformedError(err)
	}

	result := governance.Classify(changes, cfg)
	res := bumpResult{
		Bump:           governance.PlanBump(result),
		Counts:         result.Counts(),
		CurrentVersion: opts.currentVersion,
	}
	if opts.currentVersion != "" {
		next, err := governance.NextVersion(opts.currentVersion, res.Bump)
		if err != nil {
			return goverrors.NewVersionInvalidError(err)
		}
		res.NextVersion = next
	}

	w := cmd.OutOrStdout()
	if opts.json {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal bump result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	fmt.Fprintf(w, "required bump: %s\n", res.Bump)
	fmt.Fprintf(w, "changes: breaking %d, additive %d, docs-only %d, refactor %d\n",
		res.Counts.Breaking, res.Counts.Additive, res.Counts.DocsOnly, res.Counts.Refactor)
	if res.NextVersion != "" {
		fmt.Fprintf(w, "next version: %s -> %s\n", res.CurrentVersion, res.NextVersion)
	}
	return nil
}
