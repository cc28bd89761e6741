package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	goverrors "github.com/felixgeelhaar/apigov/internal/errors"
	"github.com/felixgeelhaar/apigov/internal/governance"
)

func newOverridesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Inspect override files",
		Long: `Override files approve individual breaking changes. Each entry names an
issue, a reason, an approver, the exact dot-joined paths it covers and an
optional expiry date. Wildcards are not allowed.

Subcommands:
  validate   Check every entry and report the rejected ones`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newOverridesValidateCmd())
	return cmd
}

type overridesValidateOptions struct {
	strict bool
	json   bool
}

// overrideStatus is one entry in the validate output.
type overrideStatus struct {
	IssueNumber   string   `json:"issueNumber"`
	Approver      string   `json:"approver,omitempty"`
	ImpactedPaths []string `json:"impactedPaths"`
	ExpiresAt     string   `json:"expiresAt,omitempty"`
	Valid         bool     `json:"valid"`
	Expired       bool     `json:"expired,omitempty"`
	Problem       string   `json:"problem,omitempty"`
}

func newOverridesValidateCmd() *cobra.Command {
	opts := &overridesValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate the entries of an override file",
		Long: `Check every entry of an override file independently. A rejected entry never
approves anything but does not affect the others. Valid entries whose expiry
has passed are listed as expired.

With --strict any rejected entry makes the command fail.

Examples:
  apigov overrides validate overrides.yaml
  apigov overrides validate overrides.yaml --strict --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverridesValidate(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when any entry is rejected")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output as JSON")
	return cmd
}

func runOverridesValidate(cmd *cobra.Command, path string, opts *overridesValidateOptions) error {
	entries, err := loadOverrides(path)
	if err != nil {
		return err
	}

	at := now()
	validation := governance.ValidateOverrides(entries, at)

	statuses := make([]overrideStatus, 0, len(entries))
	for _, e := range validation.Valid {
		statuses = append(statuses, overrideStatus{
			IssueNumber:   e.IssueNumber,
			Approver:      e.Approver,
			ImpactedPaths: e.ImpactedPaths,
			ExpiresAt:     e.ExpiresAt,
			Valid:         true,
			Expired:       !e.ActiveAt(at),
		})
	}
	for _, rej := range validation.Rejected {
		statuses = append(statuses, overrideStatus{
			IssueNumber:   rej.Entry.IssueNumber,
			Approver:      rej.Entry.Approver,
			ImpactedPaths: rej.Entry.ImpactedPaths,
			ExpiresAt:     rej.Entry.ExpiresAt,
			Problem:       rej.Reason,
		})
	}

	w := cmd.OutOrStdout()
	if opts.json {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal override status: %w", err)
		}
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintf(w, "%s: %d valid, %d rejected\n", path, len(validation.Valid), len(validation.Rejected))
		for _, s := range statuses {
			switch {
			case !s.Valid:
				fmt.Fprintf(w, "  ✗ %s: %s\n", issueOrPlaceholder(s.IssueNumber), s.Problem)
			case s.Expired:
				fmt.Fprintf(w, "  - %s expired %s: %s\n", s.IssueNumber, s.ExpiresAt, strings.Join(s.ImpactedPaths, ", "))
			default:
				fmt.Fprintf(w, "  ✓ %s by %s: %s\n", s.IssueNumber, s.Approver, strings.Join(s.ImpactedPaths, ", "))
			}
		}
	}

	if opts.strict && len(validation.Rejected) > 0 {
		return goverrors.New(goverrors.ErrCodeOverrideParse, fmt.Sprintf("%d override entr(ies) rejected in %s", len(validation.Rejected), path)).
			WithSuggestion("Every entry needs issueNumber, reason, approver and at least one exact impacted path")
	}
	return nil
}

func issueOrPlaceholder(issue string) string {
	if issue == "" {
		return "(no issue)"
	}
	return issue
}
