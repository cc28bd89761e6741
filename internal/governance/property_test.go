package governance

import (
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/felixgeelhaar/apigov/internal/change"
	"github.com/felixgeelhaar/apigov/internal/value"
)

var segmentNames = []string{
	"paths", "/users", "/orders", "get", "post", "components", "schemas", "User",
	"properties", "id", "type", "description", "summary", "example", "info",
	"x-internal-owner", "x-codegen", "x-private-flag", "x-status", "required",
}

var hintTags = []string{
	"", "schema_removed", "endpoint_removed", "required_field_added", "property_removed",
	"type_changed", "endpoint_added", "property_added", "response_added", "mystery",
}

func genValue() *rapid.Generator[value.Value] {
	return rapid.OneOf(
		rapid.Just[value.Value](value.Null{}),
		rapid.Map(rapid.Bool(), func(b bool) value.Value { return value.Bool(b) }),
		rapid.Map(rapid.StringMatching(`[a-z]{0,6}`), func(s string) value.Value { return value.String(s) }),
		rapid.Map(rapid.SampledFrom([]string{FieldStatus, FieldSunset, FieldDeprecated, "type"}), func(k string) value.Value {
			return value.Object{k: value.String("deprecated")}
		}),
	)
}

// genRecord generates well-formed change records.
func genRecord() *rapid.Generator[change.Record] {
	return rapid.Custom(func(t *rapid.T) change.Record {
		typ := rapid.SampledFrom([]change.Type{change.Add, change.Remove, change.Modify}).Draw(t, "type")
		names := rapid.SliceOfN(rapid.SampledFrom(segmentNames), 1, 5).Draw(t, "path")
		tag := rapid.SampledFrom(hintTags).Draw(t, "hint")

		rec := change.Record{Type: typ, Hint: change.ParseHint(tag), RawHint: tag}
		for _, n := range names {
			rec.Path = append(rec.Path, change.Key(n))
		}
		if typ != change.Add {
			rec.OldValue = genValue().Draw(t, "old")
		}
		if typ != change.Remove {
			rec.NewValue = genValue().Draw(t, "new")
		}
		return rec
	})
}

// TestClassify_TotalAndExclusive checks every record lands in exactly one
// partition and the partition sizes add up.
func TestClassify_TotalAndExclusive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := rapid.SliceOf(genRecord()).Draw(t, "records")
		r := Classify(records, DefaultConfig())

		if r.Len() != len(records) {
			t.Fatalf("classified %d records, input had %d", r.Len(), len(records))
		}

		for _, rec := range records {
			cat, _ := NewClassifier(DefaultConfig()).Categorize(rec)
			if cat != Breaking && cat != Additive && cat != DocsOnly && cat != Refactor {
				t.Fatalf("record %s has no category", rec)
			}
		}
	})
}

// TestClassify_OrderStable checks each partition is a subsequence of the
// input in input order.
func TestClassify_OrderStable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		records := make([]change.Record, n)
		for i := range records {
			records[i] = genRecord().Draw(t, "record")
			// Tag each record with its position so order can be checked.
			records[i].Path = append(records[i].Path, change.Index(i))
		}

		r := Classify(records, DefaultConfig())
		for name, part := range map[string][]change.Record{
			"breaking": r.Breaking, "additive": r.Additive, "docsOnly": r.DocsOnly, "refactor": r.Refactor,
		} {
			last := -1
			for _, rec := range part {
				pos := rec.Path.Last().Index
				if pos <= last {
					t.Fatalf("%s partition out of order: %d after %d", name, pos, last)
				}
				last = pos
			}
		}
	})
}

// TestDeprecation_OnlyRemovals checks non-removals are never deprecated
// removals whatever their old value holds.
func TestDeprecation_OnlyRemovals(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rec := genRecord().Draw(t, "record")
		if rec.Type == change.Remove {
			return
		}
		if IsDeprecatedRemoval(rec, DefaultConfig()) {
			t.Fatalf("%s reported as deprecated removal", rec)
		}
	})
}

// TestDeprecation_MarkerDecides checks a removal is deprecated exactly when
// a configured field carries a meaningful value. The deprecated field is
// meaningful only as boolean true.
func TestDeprecation_MarkerDecides(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		old := value.Object{"type": value.String("string")}
		want := false
		for _, field := range cfg.DeprecationFields {
			switch rapid.IntRange(0, 6).Draw(t, field) {
			case 1:
				old[field] = value.String("")
			case 2:
				old[field] = value.Bool(false)
			case 3:
				old[field] = value.Bool(true)
				want = true
			case 4:
				old[field] = value.String(rapid.SampledFrom([]string{"false", "no", "true", "yes"}).Draw(t, field+"Text"))
				want = want || field != FieldDeprecated
			case 5:
				old[field] = value.Number(rapid.IntRange(0, 2).Draw(t, field+"Number"))
				want = want || field != FieldDeprecated
			case 6:
				old[field] = value.Null{}
			}
		}
		if s := rapid.StringMatching(`[a-z]{0,4}`).Draw(t, "status"); s != "" && rapid.Bool().Draw(t, "setStatus") {
			old[FieldStatus] = value.String(s)
			want = true
		}

		rec := change.Record{Type: change.Remove, Path: change.P("a"), OldValue: old}
		if got := IsDeprecatedRemoval(rec, cfg); got != want {
			t.Fatalf("IsDeprecatedRemoval(%v) = %v, want %v", old, got, want)
		}
	})
}

// TestOverrides_WildcardsNeverValid checks any entry with a wildcard path is
// rejected.
func TestOverrides_WildcardsNeverValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		wild := rapid.SampledFrom([]string{"*", "?", "**"}).Draw(t, "wildcard")
		base := rapid.StringMatching(`[a-z/.]{0,10}`).Draw(t, "base")
		at := rapid.IntRange(0, len(base)).Draw(t, "at")
		bad := base[:at] + wild + base[at:]

		paths := rapid.SliceOfN(rapid.StringMatching(`[a-z][a-z/.]{0,10}`), 0, 3).Draw(t, "paths")
		pos := rapid.IntRange(0, len(paths)).Draw(t, "pos")
		paths = append(paths[:pos], append([]string{bad}, paths[pos:]...)...)

		entry := OverrideEntry{IssueNumber: "API-1", Reason: "r", Approver: "a", ImpactedPaths: paths}
		res := ValidateOverrides([]OverrideEntry{entry}, time.Now())

		if len(res.Valid) != 0 {
			t.Fatalf("entry with %q accepted", bad)
		}
		if len(res.Rejected) != 1 || !strings.Contains(res.Rejected[0].Reason, "wildcard") {
			t.Fatalf("unexpected rejection: %+v", res.Rejected)
		}
	})
}

// TestPlanBump_Precedence checks the bump follows the highest non-empty
// partition.
func TestPlanBump_Precedence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mk := func(label string) []change.Record {
			return make([]change.Record, rapid.IntRange(0, 3).Draw(t, label))
		}
		r := Result{Breaking: mk("breaking"), Additive: mk("additive"), DocsOnly: mk("docs"), Refactor: mk("refactor")}

		want := BumpNone
		switch {
		case len(r.Breaking) > 0:
			want = BumpMajor
		case len(r.Additive) > 0:
			want = BumpMinor
		case len(r.DocsOnly) > 0:
			want = BumpPatch
		}
		if got := PlanBump(r); got != want {
			t.Fatalf("PlanBump(%+v) = %s, want %s", r.Counts(), got, want)
		}
		if !CheckConsistency(want, want) {
			t.Fatalf("bump %s not consistent with itself", want)
		}
	})
}
