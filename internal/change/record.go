// Package change defines the atomic change records exchanged between the
// schema differ and the governance engine.
package change

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/apigov/internal/value"
)

// ErrMalformedChange is returned when a record does not carry the values its
// type requires.
var ErrMalformedChange = errors.New("malformed change record")

// Type is the kind of structural difference.
type Type string

const (
	Add    Type = "add"
	Remove Type = "remove"
	Modify Type = "modify"
)

// Valid reports whether t is one of the known change types.
func (t Type) Valid() bool {
	switch t {
	case Add, Remove, Modify:
		return true
	default:
		return false
	}
}

// Record is one atomic add, remove or modify difference. A nil OldValue or
// NewValue means the value is absent; an explicit JSON null is value.Null.
type Record struct {
	Type     Type
	Path     Path
	OldValue value.Value
	NewValue value.Value
	Hint     Hint
	// RawHint keeps the tag as received so unknown hints can be reported.
	RawHint string
}

// Validate checks the presence invariant for the record's type.
func (r Record) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrMalformedChange, r.Type)
	}
	if len(r.Path) == 0 {
		return fmt.Errorf("%w: empty path", ErrMalformedChange)
	}

	hasOld, hasNew := r.OldValue != nil, r.NewValue != nil
	switch r.Type {
	case Add:
		if hasOld || !hasNew {
			return fmt.Errorf("%w: add at %s must carry only newValue", ErrMalformedChange, r.Path)
		}
	case Remove:
		if !hasOld || hasNew {
			return fmt.Errorf("%w: remove at %s must carry only oldValue", ErrMalformedChange, r.Path)
		}
	case Modify:
		if !hasOld || !hasNew {
			return fmt.Errorf("%w: modify at %s must carry oldValue and newValue", ErrMalformedChange, r.Path)
		}
	}
	return nil
}

// ValidateAll validates every record and fails on the first malformed one.
func ValidateAll(records []Record) error {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
	}
	return nil
}

// String renders the record for log and report messages.
func (r Record) String() string {
	if r.RawHint != "" {
		return fmt.Sprintf("%s %s (%s)", r.Type, r.Path, r.RawHint)
	}
	return fmt.Sprintf("%s %s", r.Type, r.Path)
}
