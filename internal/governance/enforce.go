package governance

import (
	"fmt"

	"github.com/felixgeelhaar/apigov/internal/change"
)

// Verdict is the outcome of the enforcement gate.
type Verdict string

const (
	Pass Verdict = "PASS"
	Fail Verdict = "FAIL"
)

// Approved is a set of positions in the breaking partition.
type Approved map[int]struct{}

// Add marks position i as approved.
func (a Approved) Add(i int) {
	a[i] = struct{}{}
}

// Has reports whether position i is approved.
func (a Approved) Has(i int) bool {
	_, ok := a[i]
	return ok
}

// Decision is the result of the enforcement gate.
type Decision struct {
	Unresolved []change.Record
	Verdict    Verdict
	// Warnings are emitted in warn mode, one per unresolved change.
	Warnings []string
	// Violations are emitted in block mode, one per unresolved change.
	Violations []string
}

// Passed reports whether the verdict is PASS.
func (d Decision) Passed() bool {
	return d.Verdict == Pass
}

// Decide subtracts both approved sets from breaking, keeping order, and
// applies the enforcement mode. It performs no classification of its own.
// A mode other than warn or block fails.
func Decide(breaking []change.Record, deprecationApproved, overrideApproved Approved, cfg Config) Decision {
	var d Decision
	for i, rec := range breaking {
		if deprecationApproved.Has(i) || overrideApproved.Has(i) {
			continue
		}
		d.Unresolved = append(d.Unresolved, rec)
	}

	switch cfg.Enforcement {
	case EnforcementBlock:
		for _, rec := range d.Unresolved {
			d.Violations = append(d.Violations, unresolvedMessage(rec))
		}
		d.Verdict = Pass
		if len(d.Unresolved) > 0 {
			d.Verdict = Fail
		}
	case EnforcementWarn:
		for _, rec := range d.Unresolved {
			d.Warnings = append(d.Warnings, unresolvedMessage(rec))
		}
		d.Verdict = Pass
	default:
		// An unknown mode never passes.
		d.Violations = append(d.Violations, fmt.Sprintf("unknown enforcement mode %q", cfg.Enforcement))
		for _, rec := range d.Unresolved {
			d.Violations = append(d.Violations, unresolvedMessage(rec))
		}
		d.Verdict = Fail
	}
	return d
}

func unresolvedMessage(rec change.Record) string {
	return fmt.Sprintf("unresolved breaking change: %s; deprecate it with a sunset date or add an override", rec)
}
