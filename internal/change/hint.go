package change

// Hint is the semantic tag an upstream differ may attach to a change when it
// already knows what the change means. The set is closed; tags outside it
// decode to HintUnknown and take part in classification like an absent hint.
type Hint uint8

const (
	HintNone Hint = iota
	HintSchemaRemoved
	HintEndpointRemoved
	HintRequiredFieldAdded
	HintPropertyRemoved
	HintTypeChanged
	HintEndpointAdded
	HintPropertyAdded
	HintResponseAdded
	HintUnknown
)

var hintNames = map[Hint]string{
	HintSchemaRemoved:      "schema_removed",
	HintEndpointRemoved:    "endpoint_removed",
	HintRequiredFieldAdded: "required_field_added",
	HintPropertyRemoved:    "property_removed",
	HintTypeChanged:        "type_changed",
	HintEndpointAdded:      "endpoint_added",
	HintPropertyAdded:      "property_added",
	HintResponseAdded:      "response_added",
}

var hintsByName = func() map[string]Hint {
	m := make(map[string]Hint, len(hintNames))
	for h, name := range hintNames {
		m[name] = h
	}
	return m
}()

// ParseHint maps a wire tag to a Hint. The empty string is HintNone; any
// unrecognised tag is HintUnknown.
func ParseHint(tag string) Hint {
	if tag == "" {
		return HintNone
	}
	if h, ok := hintsByName[tag]; ok {
		return h
	}
	return HintUnknown
}

// String returns the wire tag of the hint.
func (h Hint) String() string {
	switch h {
	case HintNone:
		return ""
	case HintUnknown:
		return "unknown"
	default:
		return hintNames[h]
	}
}

// IsBreaking reports whether the hint marks a change that breaks consumers.
func (h Hint) IsBreaking() bool {
	switch h {
	case HintSchemaRemoved, HintEndpointRemoved, HintRequiredFieldAdded, HintPropertyRemoved, HintTypeChanged:
		return true
	default:
		return false
	}
}

// IsAdditive reports whether the hint marks a backward-compatible addition.
func (h Hint) IsAdditive() bool {
	switch h {
	case HintEndpointAdded, HintPropertyAdded, HintResponseAdded:
		return true
	default:
		return false
	}
}
