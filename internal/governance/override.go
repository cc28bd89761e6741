package governance

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/apigov/internal/change"
)

// OverrideEntry pre-approves breaking changes at specific paths.
type OverrideEntry struct {
	IssueNumber   string   `yaml:"issueNumber" json:"issueNumber"`
	Reason        string   `yaml:"reason" json:"reason"`
	ImpactedPaths []string `yaml:"impactedPaths" json:"impactedPaths"`
	Approver      string   `yaml:"approver" json:"approver"`
	ExpiresAt     string   `yaml:"expiresAt,omitempty" json:"expiresAt,omitempty"`
}

// Expiry returns the parsed expiry, if the entry has one.
func (e OverrideEntry) Expiry() (time.Time, bool, error) {
	if strings.TrimSpace(e.ExpiresAt) == "" {
		return time.Time{}, false, nil
	}
	t, err := ParseTimestamp(e.ExpiresAt)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// ActiveAt reports whether the entry has not expired at now. Entries with an
// unparseable expiry are never active.
func (e OverrideEntry) ActiveAt(now time.Time) bool {
	exp, ok, err := e.Expiry()
	if err != nil {
		return false
	}
	return !ok || exp.After(now)
}

// Rejection records why an override entry was discarded.
type Rejection struct {
	Entry  OverrideEntry `json:"entry" yaml:"entry"`
	Reason string        `json:"reason" yaml:"reason"`
}

// OverrideValidation splits entries into usable and discarded ones.
type OverrideValidation struct {
	Valid    []OverrideEntry
	Rejected []Rejection
}

// wildcardChars cover "*", "?" and therefore "**".
const wildcardChars = "*?"

// ValidateOverrides checks every entry independently. A failing entry is
// discarded as a whole and never approves anything; it does not affect the
// other entries. Expiry is only parsed here; whether an entry has expired is
// decided at match time.
func ValidateOverrides(entries []OverrideEntry, _ time.Time) OverrideValidation {
	var out OverrideValidation
	for _, e := range entries {
		if problems := entryProblems(e); len(problems) > 0 {
			out.Rejected = append(out.Rejected, Rejection{Entry: e, Reason: strings.Join(problems, "; ")})
			continue
		}
		out.Valid = append(out.Valid, e)
	}
	return out
}

func entryProblems(e OverrideEntry) []string {
	var problems []string
	if strings.TrimSpace(e.IssueNumber) == "" {
		problems = append(problems, "issueNumber is required")
	}
	if strings.TrimSpace(e.Reason) == "" {
		problems = append(problems, "reason is required")
	}
	if strings.TrimSpace(e.Approver) == "" {
		problems = append(problems, "approver is required")
	}
	if len(e.ImpactedPaths) == 0 {
		problems = append(problems, "impactedPaths must list at least one path")
	}
	for _, p := range e.ImpactedPaths {
		switch {
		case strings.TrimSpace(p) == "":
			problems = append(problems, "impactedPaths contains an empty path")
		case strings.ContainsAny(p, wildcardChars):
			problems = append(problems, fmt.Sprintf("impactedPaths entry %q contains a wildcard; only exact paths are allowed", p))
		}
	}
	if _, _, err := e.Expiry(); err != nil {
		problems = append(problems, fmt.Sprintf("expiresAt: %v", err))
	}
	return problems
}

// MatchesOverride reports whether a valid, unexpired entry lists the
// change's exact dot-joined path. Matching is case-sensitive with no prefix
// or glob semantics.
func MatchesOverride(rec change.Record, valid []OverrideEntry, now time.Time) bool {
	_, ok := NewOverrideIndex(valid).Match(rec, now)
	return ok
}

// OverrideIndex looks up valid entries by exact path.
type OverrideIndex struct {
	entries []OverrideEntry
	byPath  map[string][]int
}

// NewOverrideIndex indexes entries that already passed ValidateOverrides.
func NewOverrideIndex(valid []OverrideEntry) *OverrideIndex {
	idx := &OverrideIndex{
		entries: valid,
		byPath:  make(map[string][]int),
	}
	for i, e := range valid {
		for _, p := range e.ImpactedPaths {
			idx.byPath[p] = append(idx.byPath[p], i)
		}
	}
	return idx
}

// Match returns the first active entry, in file order, covering rec's path.
func (idx *OverrideIndex) Match(rec change.Record, now time.Time) (OverrideEntry, bool) {
	i, ok := idx.matchIndex(rec.Path.String(), now)
	if !ok {
		return OverrideEntry{}, false
	}
	return idx.entries[i], true
}

func (idx *OverrideIndex) matchIndex(path string, now time.Time) (int, bool) {
	for _, i := range idx.byPath[path] {
		if idx.entries[i].ActiveAt(now) {
			return i, true
		}
	}
	return 0, false
}

// Unused returns the entries that approve none of the given changes, in
// file order. Such entries are stale and worth cleaning up.
func (idx *OverrideIndex) Unused(changes []change.Record, now time.Time) []OverrideEntry {
	used := make(map[int]bool)
	for _, rec := range changes {
		if i, ok := idx.matchIndex(rec.Path.String(), now); ok {
			used[i] = true
		}
	}

	var unused []OverrideEntry
	for i, e := range idx.entries {
		if !used[i] {
			unused = append(unused, e)
		}
	}
	return unused
}

// Approvals returns the positions in breaking covered by an active entry.
func (idx *OverrideIndex) Approvals(breaking []change.Record, now time.Time) Approved {
	approved := make(Approved)
	for i, rec := range breaking {
		if _, ok := idx.matchIndex(rec.Path.String(), now); ok {
			approved.Add(i)
		}
	}
	return approved
}
