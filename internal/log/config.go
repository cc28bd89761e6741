package log

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format represents the output format for logs
type Format int

const (
	// FormatText outputs logs in human-readable key=value form
	FormatText Format = iota
	// FormatJSON outputs one JSON object per line
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "console", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("invalid log format %q (want text or json)", s)
	}
}

// Config holds configuration for the logger
type Config struct {
	Level  Level
	Format Format

	// Output defaults to stderr so that reports on stdout stay parseable.
	Output io.Writer

	AddSource bool

	// ServiceName and ServiceVersion are attached to every entry.
	ServiceName    string
	ServiceVersion string
}

// DefaultConfig logs at INFO in text form to stderr.
func DefaultConfig() Config {
	return Config{
		Level:          LevelInfo,
		Format:         FormatText,
		Output:         os.Stderr,
		ServiceName:    "apigov",
		ServiceVersion: "dev",
	}
}

// CIConfig logs JSON lines for log collectors in pipelines.
func CIConfig() Config {
	cfg := DefaultConfig()
	cfg.Format = FormatJSON
	return cfg
}
