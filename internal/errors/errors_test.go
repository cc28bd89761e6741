package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "test error message")

	if err.Code != ErrCodeConfigInvalid {
		t.Errorf("expected code %s, got %s", ErrCodeConfigInvalid, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeFileReadFailed, "failed to read file", cause)

	if err.Code != ErrCodeFileReadFailed {
		t.Errorf("expected code %s, got %s", ErrCodeFileReadFailed, err.Code)
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *GovError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeChangeMalformed, "bad record"),
			wantCode: "CHANGE-001",
			wantMsg:  "bad record",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeFileReadFailed, "read failed", fmt.Errorf("permission denied")),
			wantCode: "IO-002",
			wantMsg:  "permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestSuggestionsAndDocs(t *testing.T) {
	err := New(ErrCodeGovViolation, "violated").
		WithSuggestion("first").
		WithSuggestions("second", "third").
		WithDocs("https://example.com/docs")

	if len(err.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	for _, want := range []string{"Suggestions:", "first", "third", "Documentation: https://example.com/docs"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error string should contain %q, got: %s", want, errStr)
		}
	}
}

func TestCodeOf(t *testing.T) {
	inner := NewCorpusError("specs/", fmt.Errorf("boom"))
	wrapped := fmt.Errorf("check: %w", inner)

	code, ok := CodeOf(wrapped)
	if !ok || code != ErrCodeCorpusParse {
		t.Errorf("expected %s, got %q (found=%v)", ErrCodeCorpusParse, code, ok)
	}

	if _, ok := CodeOf(fmt.Errorf("plain")); ok {
		t.Errorf("plain errors carry no code")
	}
}

func TestFamily(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeConfigInvalid:       "CONFIG",
		ErrCodeVersionInconsistent: "VERSION",
		ErrCodeGovViolation:        "GOV",
		ErrorCode("odd"):           "odd",
	}
	for code, want := range tests {
		if got := code.Family(); got != want {
			t.Errorf("%s: expected family %s, got %s", code, want, got)
		}
	}
}

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("cause")

	tests := []struct {
		name string
		err  *GovError
		code ErrorCode
	}{
		{"config invalid", NewConfigInvalidError(cause), ErrCodeConfigInvalid},
		{"config parse", NewConfigParseError(".apigov.yaml", cause), ErrCodeConfigParse},
		{"change malformed", NewChangeMalformedError(cause), ErrCodeChangeMalformed},
		{"change parse", NewChangeParseError("changes.json", cause), ErrCodeChangeParse},
		{"override parse", NewOverrideParseError("overrides.yaml", cause), ErrCodeOverrideParse},
		{"corpus", NewCorpusError("specs", cause), ErrCodeCorpusParse},
		{"version invalid", NewVersionInvalidError(cause), ErrCodeVersionInvalid},
		{"version inconsistent", NewVersionInconsistentError("minor", "major", "2.0.0"), ErrCodeVersionInconsistent},
		{"violation", NewGovViolationError(2), ErrCodeGovViolation},
		{"file not found", NewFileNotFoundError("x"), ErrCodeFileNotFound},
		{"file write", NewFileWriteError("x", cause), ErrCodeFileWriteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if len(tt.err.Suggestions) == 0 {
				t.Errorf("expected at least one suggestion")
			}
		})
	}
}
