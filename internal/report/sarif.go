package report

import "fmt"

// SARIF represents a SARIF 2.1.0 report structure
type SARIF struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun represents a single run in a SARIF report
type SARIFRun struct {
	Tool       SARIFTool      `json:"tool"`
	Results    []SARIFResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

// SARIFTool describes the tool that generated the report
type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

// SARIFDriver contains tool metadata
type SARIFDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri,omitempty"`
	Version        string      `json:"version,omitempty"`
	Rules          []SARIFRule `json:"rules,omitempty"`
}

// SARIFRule describes one kind of finding
type SARIFRule struct {
	ID               string       `json:"id"`
	ShortDescription SARIFMessage `json:"shortDescription"`
}

// SARIFResult represents a single finding
type SARIFResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"` // "error", "warning", "note"
	Message   SARIFMessage    `json:"message"`
	Locations []SARIFLocation `json:"locations,omitempty"`
}

// SARIFMessage contains the finding message
type SARIFMessage struct {
	Text string `json:"text"`
}

// SARIFLocation names the schema node a finding is about
type SARIFLocation struct {
	LogicalLocations []SARIFLogicalLocation `json:"logicalLocations"`
}

// SARIFLogicalLocation identifies a node by its dot-joined path
type SARIFLogicalLocation struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind,omitempty"`
}

// Rule identifiers
const (
	RuleUnresolved       = "apigov/unresolved-breaking-change"
	RuleApproved         = "apigov/approved-breaking-change"
	RuleRejectedOverride = "apigov/rejected-override"
	RuleStaleOverride    = "apigov/stale-override"
	RuleVersionBump      = "apigov/insufficient-version-bump"
)

var sarifRules = []SARIFRule{
	{ID: RuleUnresolved, ShortDescription: SARIFMessage{Text: "Breaking change approved neither by deprecation nor by override"}},
	{ID: RuleApproved, ShortDescription: SARIFMessage{Text: "Breaking change approved by deprecation or override"}},
	{ID: RuleRejectedOverride, ShortDescription: SARIFMessage{Text: "Override entry discarded during validation"}},
	{ID: RuleStaleOverride, ShortDescription: SARIFMessage{Text: "Override entry that matched no breaking change"}},
	{ID: RuleVersionBump, ShortDescription: SARIFMessage{Text: "Declared version bump smaller than required"}},
}

// ToSARIF converts a governance report to SARIF format
func (r *Report) ToSARIF() *SARIF {
	driver := SARIFDriver{
		Name:           "apigov",
		InformationURI: "https://github.com/felixgeelhaar/apigov",
		Version:        r.ToolVersion,
		Rules:          sarifRules,
	}

	return &SARIF{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Runs: []SARIFRun{
			{
				Tool:    SARIFTool{Driver: driver},
				Results: r.sarifResults(),
				Properties: map[string]any{
					"runId":   r.RunID,
					"verdict": r.Verdict,
					"bump":    r.Bump,
					"digest":  r.Digest,
				},
			},
		},
	}
}

func (r *Report) sarifResults() []SARIFResult {
	results := []SARIFResult{}

	unresolvedLevel := "warning"
	if r.Enforcement == "block" {
		unresolvedLevel = "error"
	}
	for _, u := range r.Unresolved {
		results = append(results, SARIFResult{
			RuleID:    RuleUnresolved,
			Level:     unresolvedLevel,
			Message:   SARIFMessage{Text: u.Message},
			Locations: pathLocation(u.Path),
		})
	}

	for _, a := range r.Approvals {
		text := fmt.Sprintf("breaking change at %s approved by %s", a.Path, a.Source)
		if a.IssueNumber != "" {
			text += fmt.Sprintf(" (%s)", a.IssueNumber)
		}
		results = append(results, SARIFResult{
			RuleID:    RuleApproved,
			Level:     "note",
			Message:   SARIFMessage{Text: text},
			Locations: pathLocation(a.Path),
		})
	}

	for _, o := range r.RejectedOverrides {
		results = append(results, SARIFResult{
			RuleID:  RuleRejectedOverride,
			Level:   "warning",
			Message: SARIFMessage{Text: fmt.Sprintf("override %s rejected: %s", displayIssue(o.IssueNumber), o.Problem)},
		})
	}

	for _, o := range r.StaleOverrides {
		results = append(results, SARIFResult{
			RuleID:  RuleStaleOverride,
			Level:   "note",
			Message: SARIFMessage{Text: fmt.Sprintf("override %s matched no breaking change", o.IssueNumber)},
		})
	}

	if v := r.Version; v != nil && !v.Consistent {
		results = append(results, SARIFResult{
			RuleID: RuleVersionBump,
			Level:  "error",
			Message: SARIFMessage{Text: fmt.Sprintf("%s -> %s is a %s bump but a %s bump is required; release %s",
				v.Current, v.Proposed, v.Declared, v.Required, v.Suggested)},
		})
	}

	return results
}

func pathLocation(path string) []SARIFLocation {
	return []SARIFLocation{{
		LogicalLocations: []SARIFLogicalLocation{{FullyQualifiedName: path, Kind: "member"}},
	}}
}
