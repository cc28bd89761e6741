package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Config errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG-002"
	ErrCodeConfigParse    ErrorCode = "CONFIG-003"

	// Change input errors (CHANGE-001 to CHANGE-099)
	ErrCodeChangeMalformed ErrorCode = "CHANGE-001"
	ErrCodeChangeParse     ErrorCode = "CHANGE-002"

	// Override file errors (OVERRIDE-001 to OVERRIDE-099)
	ErrCodeOverrideNotFound ErrorCode = "OVERRIDE-001"
	ErrCodeOverrideParse    ErrorCode = "OVERRIDE-002"

	// Schema corpus errors (CORPUS-001 to CORPUS-099)
	ErrCodeCorpusNotFound ErrorCode = "CORPUS-001"
	ErrCodeCorpusParse    ErrorCode = "CORPUS-002"
	ErrCodeCorpusMismatch ErrorCode = "CORPUS-003"

	// Version errors (VERSION-001 to VERSION-099)
	ErrCodeVersionInvalid      ErrorCode = "VERSION-001"
	ErrCodeVersionInconsistent ErrorCode = "VERSION-002"

	// Governance verdict errors (GOV-001 to GOV-099)
	ErrCodeGovViolation ErrorCode = "GOV-001"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
)

// Family returns the code prefix, e.g. "CONFIG" for "CONFIG-002".
func (c ErrorCode) Family() string {
	family, _, _ := strings.Cut(string(c), "-")
	return family
}

// GovError is an error with a code, suggestions and documentation
type GovError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *GovError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *GovError) Unwrap() error {
	return e.Cause
}

// New creates a new GovError
func New(code ErrorCode, message string) *GovError {
	return &GovError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new GovError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *GovError {
	return &GovError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *GovError) WithSuggestion(suggestion string) *GovError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *GovError) WithSuggestions(suggestions ...string) *GovError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *GovError) WithDocs(url string) *GovError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first GovError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var ge *GovError
	if errors.As(err, &ge) {
		return ge.Code, true
	}
	return "", false
}

const docsBase = "https://github.com/felixgeelhaar/apigov#"

// Common error constructors for frequently used errors

// NewConfigInvalidError wraps a config validation failure
func NewConfigInvalidError(cause error) *GovError {
	return Wrap(ErrCodeConfigInvalid, "invalid governance config", cause).
		WithSuggestion("Run 'apigov config init' to write a config with the defaults").
		WithSuggestion("enforcement must be 'warn' or 'block'; deprecationWindowDays must be >= 0").
		WithDocs(docsBase + "configuration")
}

// NewConfigParseError wraps a config file that could not be read or decoded
func NewConfigParseError(path string, cause error) *GovError {
	return Wrap(ErrCodeConfigParse, fmt.Sprintf("failed to load config file: %s", path), cause).
		WithSuggestion("Check the YAML syntax and the key names").
		WithDocs(docsBase + "configuration")
}

// NewChangeMalformedError wraps a change record that breaks the input contract
func NewChangeMalformedError(cause error) *GovError {
	return Wrap(ErrCodeChangeMalformed, "malformed change record", cause).
		WithSuggestion("add records need newValue, remove records need oldValue, modify records need both").
		WithSuggestion("Every record needs a non-empty path").
		WithDocs(docsBase + "change-records")
}

// NewChangeParseError wraps a change file that could not be read or decoded
func NewChangeParseError(path string, cause error) *GovError {
	return Wrap(ErrCodeChangeParse, fmt.Sprintf("failed to read change records: %s", path), cause).
		WithSuggestion("Provide a JSON or YAML list of records, or an object with a 'changes' list").
		WithSuggestion("Run 'apigov diff --old DIR --new DIR' to produce a valid change file")
}

// NewOverrideParseError wraps an override file that could not be read or decoded
func NewOverrideParseError(path string, cause error) *GovError {
	return Wrap(ErrCodeOverrideParse, fmt.Sprintf("failed to read overrides file: %s", path), cause).
		WithSuggestion("Provide a YAML list of entries or an object with an 'overrides' list").
		WithSuggestion("Run 'apigov overrides validate FILE' to check individual entries").
		WithDocs(docsBase + "overrides")
}

// NewCorpusError wraps a schema directory that could not be loaded
func NewCorpusError(root string, cause error) *GovError {
	return Wrap(ErrCodeCorpusParse, fmt.Sprintf("failed to load schemas from: %s", root), cause).
		WithSuggestion("Check that every *.yaml, *.yml and *.json file parses").
		WithSuggestion("OpenAPI documents must pass OpenAPI 3 validation")
}

// NewVersionInvalidError wraps an unparseable or regressing version
func NewVersionInvalidError(cause error) *GovError {
	return Wrap(ErrCodeVersionInvalid, "invalid version", cause).
		WithSuggestion("Use semantic versions such as 1.4.0 or v1.4.0").
		WithSuggestion("The proposed version must not be lower than the current one")
}

// NewVersionInconsistentError reports a declared bump smaller than required
func NewVersionInconsistentError(declared, required, suggested string) *GovError {
	return New(ErrCodeVersionInconsistent, fmt.Sprintf("declared %s bump is smaller than the required %s bump", declared, required)).
		WithSuggestion(fmt.Sprintf("Release as %s or later", suggested)).
		WithDocs(docsBase + "versioning")
}

// NewGovViolationError reports a FAIL verdict
func NewGovViolationError(unresolved int) *GovError {
	return New(ErrCodeGovViolation, fmt.Sprintf("governance violation: %d unresolved breaking change(s)", unresolved)).
		WithSuggestion("Deprecate removed elements with x-sunset and wait out the window").
		WithSuggestion("Or record an approved override with an issue number and approver").
		WithDocs(docsBase + "enforcement")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *GovError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileWriteError wraps a failed write
func NewFileWriteError(path string, cause error) *GovError {
	return Wrap(ErrCodeFileWriteFailed, fmt.Sprintf("failed to write file: %s", path), cause).
		WithSuggestion("Check that the directory exists and is writable")
}
