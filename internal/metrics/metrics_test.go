package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/felixgeelhaar/apigov/internal/change"
	"github.com/felixgeelhaar/apigov/internal/engine"
	goverrors "github.com/felixgeelhaar/apigov/internal/errors"
	"github.com/felixgeelhaar/apigov/internal/governance"
	"github.com/felixgeelhaar/apigov/internal/value"
)

func sampleOutcome(t *testing.T) *engine.Outcome {
	t.Helper()
	cfg := governance.DefaultConfig()
	cfg.Enforcement = governance.EnforcementBlock

	out, err := engine.Run(engine.Input{
		Changes: []change.Record{
			{Type: change.Remove, Path: change.P("paths", "/a", "get"), OldValue: value.Object{}, Hint: change.HintEndpointRemoved},
			{Type: change.Remove, Path: change.P("paths", "/b", "get"), OldValue: value.Object{}, Hint: change.HintEndpointRemoved},
			{Type: change.Add, Path: change.P("paths", "/c", "get"), NewValue: value.Object{}},
			{Type: change.Modify, Path: change.P("info", "description"), OldValue: value.String("a"), NewValue: value.String("b")},
		},
		Config: cfg,
		Overrides: []governance.OverrideEntry{
			{IssueNumber: "API-1", Reason: "r", Approver: "a", ImpactedPaths: []string{"paths./a.get"}},
			{IssueNumber: "API-2", Reason: "r", Approver: "a", ImpactedPaths: []string{"paths./zzz.get"}},
			{IssueNumber: "", Reason: "r", Approver: "a", ImpactedPaths: []string{"paths./b.get"}},
		},
		Now:             time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		CurrentVersion:  "1.0.0",
		ProposedVersion: "1.1.0",
	})
	if err != nil {
		t.Fatalf("engine.Run: %v", err)
	}
	return out
}

func TestObserveOutcome(t *testing.T) {
	_, m := NewRegistry()
	m.ObserveOutcome("check", sampleOutcome(t), 250*time.Millisecond)

	if got := testutil.ToFloat64(m.Runs.WithLabelValues("block", "FAIL")); got != 1 {
		t.Errorf("runs{block,FAIL} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Changes.WithLabelValues("breaking")); got != 2 {
		t.Errorf("changes{breaking} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Changes.WithLabelValues("docsOnly")); got != 1 {
		t.Errorf("changes{docsOnly} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Unresolved); got != 1 {
		t.Errorf("unresolved = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Approvals.WithLabelValues("override")); got != 1 {
		t.Errorf("approvals{override} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.OverrideRejections); got != 1 {
		t.Errorf("override rejections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StaleOverrides); got != 1 {
		t.Errorf("stale overrides = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RequiredBump.WithLabelValues("major")); got != 1 {
		t.Errorf("required_bump{major} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RequiredBump.WithLabelValues("minor")); got != 0 {
		t.Errorf("required_bump{minor} = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.VersionConsistent); got != 0 {
		t.Errorf("version consistent = %v, want 0", got)
	}
	if got := testutil.CollectAndCount(m.RunDuration); got != 1 {
		t.Errorf("run duration series = %d, want 1", got)
	}
}

func TestRecordError(t *testing.T) {
	_, m := NewRegistry()

	m.RecordError(nil)
	m.RecordError(goverrors.NewGovViolationError(1))
	m.RecordError(errors.New("plain"))

	if got := testutil.ToFloat64(m.Errors.WithLabelValues("GOV-001")); got != 1 {
		t.Errorf("errors{GOV-001} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Errors.WithLabelValues("unknown")); got != 1 {
		t.Errorf("errors{unknown} = %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg, m := NewRegistry()
	m.ObserveOutcome("classify", sampleOutcome(t), time.Second)

	path := filepath.Join(t.TempDir(), "apigov.prom")
	if err := WriteTextfile(reg, path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`apigov_runs_total{enforcement="block",verdict="FAIL"} 1`,
		`apigov_changes_total{category="breaking"} 2`,
		"apigov_unresolved_breaking_changes_total 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q\n%s", want, text)
		}
	}

	if err := WriteTextfile(reg, filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Error("expected error for missing directory")
	}
}
