// Package engine runs one governance evaluation over a change list.
//
// Run is pure: it validates its inputs, then drives the classifier,
// deprecation and override approvals, the enforcement gate and the version
// planner. It performs no I/O; the caller supplies the current time.
package engine

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/apigov/internal/change"
	"github.com/felixgeelhaar/apigov/internal/governance"
)

// Input is an immutable snapshot for one governance run.
type Input struct {
	Changes   []change.Record
	Config    governance.Config
	Overrides []governance.OverrideEntry
	Now       time.Time

	// CurrentVersion and ProposedVersion are optional. When both are set the
	// declared bump is checked against the required one.
	CurrentVersion  string
	ProposedVersion string
}

// Approval records why a breaking change was resolved.
type Approval struct {
	Change change.Record
	// Deprecated is set when the change was a properly deprecated removal.
	Deprecated bool
	// Override is the entry that approved the change, if any.
	Override *governance.OverrideEntry
	Notice   string
}

// VersionCheck is the outcome of comparing declared and required bumps.
type VersionCheck struct {
	CurrentVersion  string
	ProposedVersion string
	Declared        governance.Bump
	Required        governance.Bump
	Consistent      bool
	// Suggested is the smallest version satisfying the required bump.
	Suggested string
}

// Outcome is everything a governance run decides.
type Outcome struct {
	Config         governance.Config
	Classification governance.Result
	Decision       governance.Decision
	Approvals      []Approval
	Rejected       []governance.Rejection
	StaleOverrides []governance.OverrideEntry
	Bump           governance.Bump
	Version        *VersionCheck
	// Notices explain the deprecation state of each unresolved breaking
	// change. Notices[i] belongs to Decision.Unresolved[i] and is empty for
	// changes without a deprecation marker.
	Notices []string
	// Rules records which classification rule decided each change.
	Rules PartitionRules
}

// PartitionRules holds one rule per classified change, parallel to the
// partitions of a governance.Result.
type PartitionRules struct {
	Breaking []governance.Rule
	Additive []governance.Rule
	DocsOnly []governance.Rule
	Refactor []governance.Rule
}

func (p *PartitionRules) add(cat governance.Category, rule governance.Rule) {
	switch cat {
	case governance.Breaking:
		p.Breaking = append(p.Breaking, rule)
	case governance.Additive:
		p.Additive = append(p.Additive, rule)
	case governance.DocsOnly:
		p.DocsOnly = append(p.DocsOnly, rule)
	case governance.Refactor:
		p.Refactor = append(p.Refactor, rule)
	}
}

// Passed reports whether the verdict is PASS and, when versions were given,
// the declared bump is consistent.
func (o *Outcome) Passed() bool {
	if !o.Decision.Passed() {
		return false
	}
	return o.Version == nil || o.Version.Consistent
}

// Run evaluates in. A malformed change record or an invalid config rejects
// the whole run before anything is classified.
func Run(in Input) (*Outcome, error) {
	if err := in.Config.Validate(); err != nil {
		return nil, err
	}
	if err := change.ValidateAll(in.Changes); err != nil {
		return nil, err
	}

	classifier := governance.NewClassifier(in.Config)
	result := classifier.Classify(in.Changes)

	var rules PartitionRules
	for _, rec := range in.Changes {
		rules.add(classifier.Categorize(rec))
	}

	validation := governance.ValidateOverrides(in.Overrides, in.Now)
	index := governance.NewOverrideIndex(validation.Valid)

	depApproved := governance.DeprecationApprovals(result.Breaking, in.Config, in.Now)
	ovrApproved := index.Approvals(result.Breaking, in.Now)
	decision := governance.Decide(result.Breaking, depApproved, ovrApproved, in.Config)

	out := &Outcome{
		Config:         in.Config,
		Classification: result,
		Decision:       decision,
		Rejected:       validation.Rejected,
		StaleOverrides: index.Unused(result.Breaking, in.Now),
		Bump:           governance.PlanBump(result),
		Rules:          rules,
	}

	for i, rec := range result.Breaking {
		dep, ovr := depApproved.Has(i), ovrApproved.Has(i)
		notice := governance.DeprecationNotice(rec, in.Config, in.Now)
		if !dep && !ovr {
			out.Notices = append(out.Notices, notice)
			continue
		}

		approval := Approval{Change: rec, Deprecated: dep, Notice: notice}
		if ovr {
			entry, _ := index.Match(rec, in.Now)
			approval.Override = &entry
		}
		out.Approvals = append(out.Approvals, approval)
	}

	if in.CurrentVersion != "" && in.ProposedVersion != "" {
		check, err := checkVersion(in.CurrentVersion, in.ProposedVersion, out.Bump)
		if err != nil {
			return nil, err
		}
		out.Version = check
	}

	return out, nil
}

func checkVersion(current, proposed string, required governance.Bump) (*VersionCheck, error) {
	declared, err := governance.DeclaredBump(current, proposed)
	if err != nil {
		return nil, fmt.Errorf("check declared version: %w", err)
	}
	suggested, err := governance.NextVersion(current, required)
	if err != nil {
		return nil, fmt.Errorf("suggest version: %w", err)
	}
	return &VersionCheck{
		CurrentVersion:  current,
		ProposedVersion: proposed,
		Declared:        declared,
		Required:        required,
		Consistent:      governance.CheckConsistency(declared, required),
		Suggested:       suggested,
	}, nil
}
