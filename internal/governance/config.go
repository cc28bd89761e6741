// Package governance implements the contract governance decisions: change
// classification, deprecation and override approval, the enforcement gate
// and semantic-version planning.
//
// Everything in this package is a pure function of its arguments. Callers
// supply the current time explicitly; nothing reads clocks, files or the
// environment.
package governance

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned when a Config cannot drive a governance run.
var ErrInvalidConfig = errors.New("invalid governance config")

// Enforcement selects what happens to unresolved breaking changes.
type Enforcement string

const (
	// EnforcementWarn reports unresolved breaking changes but always passes.
	EnforcementWarn Enforcement = "warn"
	// EnforcementBlock fails the run when any breaking change is unresolved.
	EnforcementBlock Enforcement = "block"
)

// ParseEnforcement parses a mode name, case-insensitively.
func ParseEnforcement(s string) (Enforcement, error) {
	switch Enforcement(strings.ToLower(strings.TrimSpace(s))) {
	case EnforcementWarn:
		return EnforcementWarn, nil
	case EnforcementBlock:
		return EnforcementBlock, nil
	default:
		return "", fmt.Errorf("%w: unknown enforcement mode %q (want warn or block)", ErrInvalidConfig, s)
	}
}

// Default field names.
const (
	FieldStatus     = "x-status"
	FieldSunset     = "x-sunset"
	FieldDeprecated = "deprecated"
)

// DefaultDeprecationWindowDays is the default minimum notice period.
const DefaultDeprecationWindowDays = 90

// Config controls a governance run. Build it once, validate it, and pass it
// by value.
type Config struct {
	// DocsOnlyPatterns are path segment names that hold documentation.
	DocsOnlyPatterns []string `yaml:"docsOnlyPatterns" json:"docsOnlyPatterns" validate:"dive,required"`
	// IgnoreOrdering is consumed by the schema differ, not by classification.
	IgnoreOrdering bool `yaml:"ignoreOrdering" json:"ignoreOrdering"`
	// DeprecationFields mark a node as deprecated when present with a
	// meaningful value.
	DeprecationFields     []string    `yaml:"deprecationFields" json:"deprecationFields" validate:"required,min=1,dive,required"`
	DeprecationWindowDays int         `yaml:"deprecationWindowDays" json:"deprecationWindowDays" validate:"gte=0"`
	Enforcement           Enforcement `yaml:"enforcement" json:"enforcement" validate:"required,oneof=warn block"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		DocsOnlyPatterns:      []string{"description", "example", "summary"},
		IgnoreOrdering:        true,
		DeprecationFields:     []string{FieldStatus, FieldSunset, FieldDeprecated},
		DeprecationWindowDays: DefaultDeprecationWindowDays,
		Enforcement:           EnforcementWarn,
	}
}

var configValidate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		return name
	})
	return v
}()

// Validate reports every problem that would make a verdict meaningless.
// The returned error wraps ErrInvalidConfig.
func (c Config) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
