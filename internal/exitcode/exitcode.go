package exitcode

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/apigov/internal/change"
	goverrors "github.com/felixgeelhaar/apigov/internal/errors"
	"github.com/felixgeelhaar/apigov/internal/governance"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// GovernanceViolation indicates a FAIL verdict
	GovernanceViolation = 3

	// VersionInconsistent indicates the declared bump is smaller than required
	VersionInconsistent = 4

	// InvalidInput indicates a malformed change record, config or override file
	InvalidInput = 5

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code. Error codes and sentinel
// errors decide first; the message is only inspected as a fallback.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if errors.Is(err, context.Canceled) {
		return Interrupted
	}

	if code, ok := goverrors.CodeOf(err); ok {
		switch code {
		case goverrors.ErrCodeGovViolation:
			return GovernanceViolation
		case goverrors.ErrCodeVersionInconsistent:
			return VersionInconsistent
		}
		switch code.Family() {
		case "CONFIG", "CHANGE", "OVERRIDE", "CORPUS", "VERSION":
			return InvalidInput
		}
	}

	if errors.Is(err, governance.ErrInvalidConfig) || errors.Is(err, change.ErrMalformedChange) {
		return InvalidInput
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "governance violation") {
		return GovernanceViolation
	}
	if strings.Contains(errMsg, "interrupted") {
		return Interrupted
	}

	// Usage errors
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "unknown flag") {
		return UsageError
	}
	if strings.Contains(errMsg, "accepts") && strings.Contains(errMsg, "arg(s)") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case GovernanceViolation:
		return "Governance violation (unresolved breaking changes)"
	case VersionInconsistent:
		return "Declared version bump is smaller than required"
	case InvalidInput:
		return "Invalid input (change records, config or overrides)"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
