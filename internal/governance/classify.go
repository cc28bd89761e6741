package governance

import (
	"strings"

	"github.com/felixgeelhaar/apigov/internal/change"
)

// Category is the severity bucket a change falls into.
type Category string

const (
	Breaking Category = "breaking"
	Additive Category = "additive"
	DocsOnly Category = "docsOnly"
	Refactor Category = "refactor"
)

// Rule names the classification step that decided a change's category.
type Rule string

const (
	RuleBreakingHint   Rule = "breaking-hint"
	RuleAdditiveHint   Rule = "additive-hint"
	RuleInternalPrefix Rule = "internal-extension"
	RuleDocsPattern    Rule = "docs-pattern"
	RuleFallback       Rule = "fallback"
)

// refactorPrefixes mark extension fields that never reach API consumers.
var refactorPrefixes = []string{"x-internal", "x-codegen", "x-private"}

// Result partitions the classified changes. Each slice keeps input order.
type Result struct {
	Breaking []change.Record
	Additive []change.Record
	DocsOnly []change.Record
	Refactor []change.Record
}

// Counts summarises a Result.
type Counts struct {
	Breaking int `json:"breaking" yaml:"breaking"`
	Additive int `json:"additive" yaml:"additive"`
	DocsOnly int `json:"docsOnly" yaml:"docsOnly"`
	Refactor int `json:"refactor" yaml:"refactor"`
}

// Total returns the number of classified changes.
func (c Counts) Total() int {
	return c.Breaking + c.Additive + c.DocsOnly + c.Refactor
}

// Counts returns the size of each partition.
func (r Result) Counts() Counts {
	return Counts{
		Breaking: len(r.Breaking),
		Additive: len(r.Additive),
		DocsOnly: len(r.DocsOnly),
		Refactor: len(r.Refactor),
	}
}

// Len returns the total number of classified changes.
func (r Result) Len() int {
	return r.Counts().Total()
}

// Classifier assigns each change record to exactly one Category.
type Classifier struct {
	docsPatterns map[string]struct{}
}

// NewClassifier builds a Classifier from the config's docs-only patterns.
func NewClassifier(cfg Config) *Classifier {
	patterns := make(map[string]struct{}, len(cfg.DocsOnlyPatterns))
	for _, p := range cfg.DocsOnlyPatterns {
		patterns[p] = struct{}{}
	}
	return &Classifier{docsPatterns: patterns}
}

// Categorize returns the category of a single record and the rule that
// decided it. The first matching rule wins:
//
//  1. a breaking hint
//  2. an additive hint
//  3. any path segment starting with an internal extension prefix
//  4. a modify whose path names a docs-only field
//  5. the record type: remove and modify are breaking, add is additive
func (c *Classifier) Categorize(rec change.Record) (Category, Rule) {
	switch {
	case rec.Hint.IsBreaking():
		return Breaking, RuleBreakingHint
	case rec.Hint.IsAdditive():
		return Additive, RuleAdditiveHint
	case hasInternalSegment(rec.Path):
		return Refactor, RuleInternalPrefix
	case rec.Type == change.Modify && c.hasDocsSegment(rec.Path):
		return DocsOnly, RuleDocsPattern
	}

	switch rec.Type {
	case change.Add:
		return Additive, RuleFallback
	default:
		// Unclassified removals and value changes are assumed to break.
		return Breaking, RuleFallback
	}
}

// Classify partitions records. It is total: every record lands in exactly
// one partition and relative order is preserved within each.
func (c *Classifier) Classify(records []change.Record) Result {
	var r Result
	for _, rec := range records {
		cat, _ := c.Categorize(rec)
		switch cat {
		case Breaking:
			r.Breaking = append(r.Breaking, rec)
		case Additive:
			r.Additive = append(r.Additive, rec)
		case DocsOnly:
			r.DocsOnly = append(r.DocsOnly, rec)
		case Refactor:
			r.Refactor = append(r.Refactor, rec)
		}
	}
	return r
}

// Classify is a convenience wrapper around NewClassifier(cfg).Classify.
func Classify(records []change.Record, cfg Config) Result {
	return NewClassifier(cfg).Classify(records)
}

func hasInternalSegment(p change.Path) bool {
	for _, name := range p.Names() {
		for _, prefix := range refactorPrefixes {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) hasDocsSegment(p change.Path) bool {
	for _, name := range p.Names() {
		if _, ok := c.docsPatterns[name]; ok {
			return true
		}
	}
	return false
}
