package change

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/apigov/internal/value"
)

//go:embed schema.json
var recordSchemaJSON string

var recordSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(recordSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse change record schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("change-records.json", doc); err != nil {
		return nil, fmt.Errorf("add change record schema: %w", err)
	}
	return c.Compile("change-records.json")
})

// Decode parses a JSON or YAML change list, either a bare list or an object
// with a "changes" member. The document is checked against the record schema
// and every record against its type invariant; any failure rejects the whole
// list.
func Decode(data []byte) ([]Record, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChange, err)
	}
	doc, err := value.FromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChange, err)
	}

	if err := validateShape(doc); err != nil {
		return nil, err
	}

	list, ok := doc.(value.Array)
	if !ok {
		list = doc.(value.Object)["changes"].(value.Array)
	}

	records := make([]Record, 0, len(list))
	for i, item := range list {
		rec, err := recordFrom(item.(value.Object))
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		records = append(records, rec)
	}

	if err := ValidateAll(records); err != nil {
		return nil, err
	}
	return records, nil
}

func validateShape(doc value.Value) error {
	sch, err := recordSchema()
	if err != nil {
		return err
	}

	// Round-trip through JSON so numbers reach the validator as json.Number.
	encoded, err := value.MarshalJSON(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedChange, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedChange, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedChange, err)
	}
	return nil
}

func recordFrom(obj value.Object) (Record, error) {
	rec := Record{
		Type:     Type(obj["type"].(value.String)),
		OldValue: obj["oldValue"],
		NewValue: obj["newValue"],
	}

	for _, seg := range obj["path"].(value.Array) {
		switch s := seg.(type) {
		case value.String:
			rec.Path = append(rec.Path, Key(string(s)))
		case value.Number:
			f := float64(s)
			if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
				return Record{}, fmt.Errorf("%w: path index %v", ErrMalformedChange, f)
			}
			rec.Path = append(rec.Path, Index(int(f)))
		}
	}

	if tag, ok := obj["classificationHint"].(value.String); ok {
		rec.RawHint = string(tag)
		rec.Hint = ParseHint(rec.RawHint)
	}
	return rec, nil
}

// Encode renders records in the wire shape accepted by Decode.
func Encode(records []Record) ([]byte, error) {
	wire := struct {
		Changes []json.RawMessage `json:"changes"`
	}{Changes: make([]json.RawMessage, 0, len(records))}

	for _, r := range records {
		item := map[string]any{
			"type": r.Type,
			"path": r.Path.MarshalAny(),
		}
		// omitempty would drop an explicit null, so presence is decided here.
		if r.OldValue != nil {
			item["oldValue"] = value.ToAny(r.OldValue)
		}
		if r.NewValue != nil {
			item["newValue"] = value.ToAny(r.NewValue)
		}
		if r.RawHint != "" {
			item["classificationHint"] = r.RawHint
		} else if r.Hint != HintNone {
			item["classificationHint"] = r.Hint.String()
		}

		b, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", r.Path, err)
		}
		wire.Changes = append(wire.Changes, b)
	}

	return json.MarshalIndent(wire, "", "  ")
}
