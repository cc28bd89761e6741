package diff

import (
	"github.com/felixgeelhaar/apigov/internal/change"
	"github.com/felixgeelhaar/apigov/internal/value"
)

// Tag for a schema added under components. It is outside the closed hint
// set, so classification falls back to the change type.
const rawSchemaAdded = "schema_added"

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// applyHint tags rec when its document-relative path has a known OpenAPI
// meaning. Records that match no rule are left unhinted.
func applyHint(rec *change.Record) {
	hint, raw := hintFor(*rec)
	if raw == "" {
		return
	}
	rec.Hint, rec.RawHint = hint, raw
}

func hintFor(rec change.Record) (change.Hint, string) {
	p := rec.Path
	n := len(p)
	if n == 0 {
		return change.HintNone, ""
	}
	last := p.Last()
	parent := segmentName(p, n-2)

	switch {
	case isEndpoint(p):
		switch rec.Type {
		case change.Add:
			return tagged(change.HintEndpointAdded)
		case change.Remove:
			return tagged(change.HintEndpointRemoved)
		}

	case n == 3 && segmentName(p, 0) == "components" && segmentName(p, 1) == "schemas":
		switch rec.Type {
		case change.Add:
			return change.ParseHint(rawSchemaAdded), rawSchemaAdded
		case change.Remove:
			return tagged(change.HintSchemaRemoved)
		}

	case parent == "properties" && !last.IsIndex:
		switch rec.Type {
		case change.Add:
			return tagged(change.HintPropertyAdded)
		case change.Remove:
			return tagged(change.HintPropertyRemoved)
		}

	case rec.Type == change.Add && isRequiredGain(p, rec.NewValue):
		return tagged(change.HintRequiredFieldAdded)

	case parent == "responses" && rec.Type == change.Add && !last.IsIndex:
		return tagged(change.HintResponseAdded)

	case last.Name == "type" && !last.IsIndex && rec.Type == change.Modify:
		return tagged(change.HintTypeChanged)
	}

	return change.HintNone, ""
}

func tagged(h change.Hint) (change.Hint, string) {
	return h, h.String()
}

// isEndpoint matches paths.<route> and paths.<route>.<method>.
func isEndpoint(p change.Path) bool {
	if segmentName(p, 0) != "paths" {
		return false
	}
	switch len(p) {
	case 2:
		return !p[1].IsIndex
	case 3:
		return !p[1].IsIndex && httpMethods[segmentName(p, 2)]
	}
	return false
}

// isRequiredGain matches a new element in a schema's required list, a new
// non-empty required list, or a parameter that starts out required.
func isRequiredGain(p change.Path, newV value.Value) bool {
	last := p.Last()
	if last.IsIndex {
		return segmentName(p, len(p)-2) == "required"
	}
	if last.Name != "required" {
		return false
	}
	switch v := newV.(type) {
	case value.Array:
		return len(v) > 0
	case value.Bool:
		return bool(v)
	}
	return false
}

func segmentName(p change.Path, i int) string {
	if i < 0 || i >= len(p) || p[i].IsIndex {
		return ""
	}
	return p[i].Name
}
