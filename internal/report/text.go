package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type textStyles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
	enabled bool
}

func newTextStyles(f *TextFormatter) textStyles {
	if f.opts.NoColor {
		return textStyles{}
	}
	r := lipgloss.NewRenderer(f.opts.Writer)
	return textStyles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		label:   r.NewStyle().Foreground(lipgloss.Color("12")),
		pass:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		fail:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("241")),
		enabled: true,
	}
}

func (s textStyles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

// TextFormatter renders a human-readable summary
type TextFormatter struct {
	opts *FormatterOptions
}

// Format writes the report as styled text
func (f *TextFormatter) Format(r *Report) error {
	s := newTextStyles(f)
	var b strings.Builder

	verdict := s.render(s.pass, r.Verdict)
	if !r.Passed {
		verdict = s.render(s.fail, r.Verdict)
	}
	fmt.Fprintf(&b, "%s %s\n", s.render(s.title, "API governance:"), verdict)
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		s.render(s.label, "enforcement:"), r.Enforcement,
		s.render(s.label, "required bump:"), r.Bump)
	fmt.Fprintf(&b, "%s breaking %d, additive %d, docs-only %d, refactor %d\n",
		s.render(s.label, "changes:"),
		r.Counts.Breaking, r.Counts.Additive, r.Counts.DocsOnly, r.Counts.Refactor)

	if len(r.Unresolved) > 0 {
		style := s.warn
		if r.Enforcement == "block" {
			style = s.fail
		}
		fmt.Fprintf(&b, "\n%s\n", s.render(s.header, fmt.Sprintf("Unresolved breaking changes (%d)", len(r.Unresolved))))
		for _, u := range r.Unresolved {
			fmt.Fprintf(&b, "  %s %s\n", s.render(style, "✗"), u.Path)
			if u.Notice != "" {
				fmt.Fprintf(&b, "      %s\n", s.render(s.muted, u.Notice))
			}
		}
	}

	if len(r.Approvals) > 0 {
		fmt.Fprintf(&b, "\n%s\n", s.render(s.header, fmt.Sprintf("Approved breaking changes (%d)", len(r.Approvals))))
		for _, a := range r.Approvals {
			line := fmt.Sprintf("  %s %s (%s", s.render(s.pass, "✓"), a.Path, a.Source)
			if a.IssueNumber != "" {
				line += fmt.Sprintf(", %s by %s", a.IssueNumber, a.Approver)
			}
			b.WriteString(line + ")\n")
		}
	}

	if len(r.Changes.Additive)+len(r.Changes.DocsOnly)+len(r.Changes.Refactor) > 0 {
		fmt.Fprintf(&b, "\n%s\n", s.render(s.header, "Other changes"))
		for _, group := range []struct {
			name    string
			entries []ChangeEntry
		}{
			{"additive", r.Changes.Additive},
			{"docs-only", r.Changes.DocsOnly},
			{"refactor", r.Changes.Refactor},
		} {
			for _, e := range group.entries {
				fmt.Fprintf(&b, "  %s %s\n", s.render(s.muted, fmt.Sprintf("%-9s", group.name)), e.Path)
			}
		}
	}

	if len(r.RejectedOverrides) > 0 {
		fmt.Fprintf(&b, "\n%s\n", s.render(s.header, "Rejected overrides"))
		for _, o := range r.RejectedOverrides {
			fmt.Fprintf(&b, "  %s %s: %s\n", s.render(s.warn, "!"), displayIssue(o.IssueNumber), o.Problem)
		}
	}

	if len(r.StaleOverrides) > 0 {
		fmt.Fprintf(&b, "\n%s\n", s.render(s.header, "Overrides that matched nothing"))
		for _, o := range r.StaleOverrides {
			fmt.Fprintf(&b, "  %s %s: %s\n", s.render(s.muted, "-"), o.IssueNumber, strings.Join(o.ImpactedPaths, ", "))
		}
	}

	if v := r.Version; v != nil {
		fmt.Fprintf(&b, "\n%s %s -> %s declares a %s bump; %s required",
			s.render(s.label, "version:"), v.Current, v.Proposed, v.Declared, v.Required)
		if v.Consistent {
			fmt.Fprintf(&b, " %s\n", s.render(s.pass, "ok"))
		} else {
			fmt.Fprintf(&b, " %s (suggest %s)\n", s.render(s.fail, "too small"), v.Suggested)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", s.render(s.muted, fmt.Sprintf("run %s  digest %s", r.RunID, shortDigest(r.Digest))))

	_, err := fmt.Fprint(f.opts.Writer, b.String())
	return err
}

func displayIssue(issue string) string {
	if issue == "" {
		return "(no issue)"
	}
	return issue
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
