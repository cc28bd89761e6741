// Package report turns a governance outcome into a serializable report and
// renders it as text, JSON, YAML or SARIF.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/apigov/internal/change"
	"github.com/felixgeelhaar/apigov/internal/engine"
	"github.com/felixgeelhaar/apigov/internal/governance"
)

// Meta carries run context that the engine does not know about.
type Meta struct {
	RunID       string
	GeneratedAt time.Time
	Command     string
	ToolVersion string

	OldRoot        string
	NewRoot        string
	OldFingerprint string
	NewFingerprint string
}

// ChangeEntry is one classified change.
type ChangeEntry struct {
	Path string `json:"path" yaml:"path"`
	Type string `json:"type" yaml:"type"`
	Hint string `json:"hint,omitempty" yaml:"hint,omitempty"`
	Rule string `json:"rule" yaml:"rule"`
}

// Partitions lists the classified changes per category, in input order.
type Partitions struct {
	Breaking []ChangeEntry `json:"breaking" yaml:"breaking"`
	Additive []ChangeEntry `json:"additive" yaml:"additive"`
	DocsOnly []ChangeEntry `json:"docsOnly" yaml:"docsOnly"`
	Refactor []ChangeEntry `json:"refactor" yaml:"refactor"`
}

// ApprovalEntry explains why a breaking change is allowed.
type ApprovalEntry struct {
	Path        string `json:"path" yaml:"path"`
	Source      string `json:"source" yaml:"source"`
	IssueNumber string `json:"issueNumber,omitempty" yaml:"issueNumber,omitempty"`
	Approver    string `json:"approver,omitempty" yaml:"approver,omitempty"`
	Reason      string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Notice      string `json:"notice,omitempty" yaml:"notice,omitempty"`
}

// UnresolvedEntry is a breaking change nothing approved.
type UnresolvedEntry struct {
	Path    string `json:"path" yaml:"path"`
	Type    string `json:"type" yaml:"type"`
	Hint    string `json:"hint,omitempty" yaml:"hint,omitempty"`
	Message string `json:"message" yaml:"message"`
	Notice  string `json:"notice,omitempty" yaml:"notice,omitempty"`
}

// RejectedOverride is an override entry discarded during validation.
type RejectedOverride struct {
	IssueNumber string `json:"issueNumber" yaml:"issueNumber"`
	Problem     string `json:"problem" yaml:"problem"`
}

// StaleOverride is a valid entry that approved nothing in this run.
type StaleOverride struct {
	IssueNumber   string   `json:"issueNumber" yaml:"issueNumber"`
	Approver      string   `json:"approver" yaml:"approver"`
	ImpactedPaths []string `json:"impactedPaths" yaml:"impactedPaths"`
	ExpiresAt     string   `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

// VersionEntry reports the declared-versus-required bump check.
type VersionEntry struct {
	Current    string `json:"current" yaml:"current"`
	Proposed   string `json:"proposed" yaml:"proposed"`
	Declared   string `json:"declared" yaml:"declared"`
	Required   string `json:"required" yaml:"required"`
	Consistent bool   `json:"consistent" yaml:"consistent"`
	Suggested  string `json:"suggested" yaml:"suggested"`
}

// Source describes one side of the comparison.
type Source struct {
	Root        string `json:"root,omitempty" yaml:"root,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

// Report is the complete, serializable result of a governance run.
type Report struct {
	RunID       string    `json:"runId" yaml:"runId"`
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`
	Command     string    `json:"command,omitempty" yaml:"command,omitempty"`
	ToolVersion string    `json:"toolVersion,omitempty" yaml:"toolVersion,omitempty"`

	Old *Source `json:"old,omitempty" yaml:"old,omitempty"`
	New *Source `json:"new,omitempty" yaml:"new,omitempty"`

	Enforcement string            `json:"enforcement" yaml:"enforcement"`
	Verdict     string            `json:"verdict" yaml:"verdict"`
	Passed      bool              `json:"passed" yaml:"passed"`
	Bump        string            `json:"bump" yaml:"bump"`
	Counts      governance.Counts `json:"counts" yaml:"counts"`
	Changes     Partitions        `json:"changes" yaml:"changes"`

	Approvals         []ApprovalEntry    `json:"approvals" yaml:"approvals"`
	Unresolved        []UnresolvedEntry  `json:"unresolved" yaml:"unresolved"`
	Warnings          []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Violations        []string           `json:"violations,omitempty" yaml:"violations,omitempty"`
	RejectedOverrides []RejectedOverride `json:"rejectedOverrides,omitempty" yaml:"rejectedOverrides,omitempty"`
	StaleOverrides    []StaleOverride    `json:"staleOverrides,omitempty" yaml:"staleOverrides,omitempty"`
	Version           *VersionEntry      `json:"version,omitempty" yaml:"version,omitempty"`

	// Digest is a blake3 hash over the decision content. Run id and
	// timestamp are excluded so identical inputs give identical digests.
	Digest string `json:"digest" yaml:"digest"`
}

// Build assembles a report from out. A missing run id is generated and a
// zero timestamp is replaced by the current time.
func Build(out *engine.Outcome, meta Meta) (*Report, error) {
	if meta.RunID == "" {
		meta.RunID = uuid.NewString()
	}
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now().UTC()
	}

	r := &Report{
		RunID:       meta.RunID,
		GeneratedAt: meta.GeneratedAt,
		Command:     meta.Command,
		ToolVersion: meta.ToolVersion,
		Old:         source(meta.OldRoot, meta.OldFingerprint),
		New:         source(meta.NewRoot, meta.NewFingerprint),
		Enforcement: string(out.Config.Enforcement),
		Verdict:     string(out.Decision.Verdict),
		Passed:      out.Passed(),
		Bump:        out.Bump.String(),
		Counts:      out.Classification.Counts(),
		Changes: Partitions{
			Breaking: entries(out.Classification.Breaking, out.Rules.Breaking),
			Additive: entries(out.Classification.Additive, out.Rules.Additive),
			DocsOnly: entries(out.Classification.DocsOnly, out.Rules.DocsOnly),
			Refactor: entries(out.Classification.Refactor, out.Rules.Refactor),
		},
		Approvals:  []ApprovalEntry{},
		Unresolved: []UnresolvedEntry{},
		Warnings:   out.Decision.Warnings,
		Violations: out.Decision.Violations,
	}

	for _, a := range out.Approvals {
		r.Approvals = append(r.Approvals, approvalEntry(a))
	}

	messages := out.Decision.Warnings
	if out.Config.Enforcement == governance.EnforcementBlock {
		messages = out.Decision.Violations
	}
	for i, rec := range out.Decision.Unresolved {
		entry := UnresolvedEntry{
			Path:   rec.Path.String(),
			Type:   string(rec.Type),
			Hint:   rec.RawHint,
		}
		if i < len(out.Notices) {
			entry.Notice = out.Notices[i]
		}
		if i < len(messages) {
			entry.Message = messages[i]
		}
		r.Unresolved = append(r.Unresolved, entry)
	}

	for _, rej := range out.Rejected {
		r.RejectedOverrides = append(r.RejectedOverrides, RejectedOverride{
			IssueNumber: rej.Entry.IssueNumber,
			Problem:     rej.Reason,
		})
	}
	for _, e := range out.StaleOverrides {
		r.StaleOverrides = append(r.StaleOverrides, StaleOverride{
			IssueNumber:   e.IssueNumber,
			Approver:      e.Approver,
			ImpactedPaths: e.ImpactedPaths,
			ExpiresAt:     e.ExpiresAt,
		})
	}

	if v := out.Version; v != nil {
		r.Version = &VersionEntry{
			Current:    v.CurrentVersion,
			Proposed:   v.ProposedVersion,
			Declared:   v.Declared.String(),
			Required:   v.Required.String(),
			Consistent: v.Consistent,
			Suggested:  v.Suggested,
		}
	}

	digest, err := r.computeDigest()
	if err != nil {
		return nil, err
	}
	r.Digest = digest
	return r, nil
}

func (r *Report) computeDigest() (string, error) {
	content := *r
	content.RunID = ""
	content.GeneratedAt = time.Time{}
	content.Digest = ""

	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("marshal report for digest: %w", err)
	}

	hasher := blake3.New()
	if _, err := hasher.Write(data); err != nil {
		return "", fmt.Errorf("hash report: %w", err)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

func source(root, fingerprint string) *Source {
	if root == "" && fingerprint == "" {
		return nil
	}
	return &Source{Root: root, Fingerprint: fingerprint}
}

func entries(records []change.Record, rules []governance.Rule) []ChangeEntry {
	out := make([]ChangeEntry, 0, len(records))
	for i, rec := range records {
		entry := ChangeEntry{
			Path: rec.Path.String(),
			Type: string(rec.Type),
			Hint: rec.RawHint,
		}
		if i < len(rules) {
			entry.Rule = string(rules[i])
		}
		out = append(out, entry)
	}
	return out
}

func approvalEntry(a engine.Approval) ApprovalEntry {
	entry := ApprovalEntry{Path: a.Change.Path.String(), Notice: a.Notice}
	switch {
	case a.Deprecated && a.Override != nil:
		entry.Source = "deprecation+override"
	case a.Deprecated:
		entry.Source = "deprecation"
	default:
		entry.Source = "override"
	}
	if o := a.Override; o != nil {
		entry.IssueNumber = o.IssueNumber
		entry.Approver = o.Approver
		entry.Reason = o.Reason
	}
	return entry
}
