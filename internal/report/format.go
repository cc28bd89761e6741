package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formats lists the accepted --format values.
var Formats = []string{"text", "json", "yaml", "sarif"}

// Formatter renders a report.
type Formatter interface {
	Format(r *Report) error
}

// FormatterOptions contains configuration for formatters
type FormatterOptions struct {
	// Writer is where output is written (defaults to os.Stdout)
	Writer io.Writer
	// NoColor disables styling in the text formatter
	NoColor bool
	// Compact disables indentation for JSON and SARIF
	Compact bool
}

// NewFormatter creates a formatter based on the format string
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	if opts == nil {
		opts = &FormatterOptions{}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{opts: opts}, nil
	case "yaml", "yml":
		return &YAMLFormatter{opts: opts}, nil
	case "sarif":
		return &SARIFFormatter{opts: opts}, nil
	case "text", "":
		return &TextFormatter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	opts *FormatterOptions
}

// Format writes the report as JSON
func (f *JSONFormatter) Format(r *Report) error {
	return encodeJSON(f.opts, r)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	opts *FormatterOptions
}

// Format writes the report as YAML
func (f *YAMLFormatter) Format(r *Report) error {
	encoder := yaml.NewEncoder(f.opts.Writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return encoder.Close()
}

// SARIFFormatter formats output as SARIF 2.1.0
type SARIFFormatter struct {
	opts *FormatterOptions
}

// Format writes the report as a SARIF log
func (f *SARIFFormatter) Format(r *Report) error {
	return encodeJSON(f.opts, r.ToSARIF())
}

func encodeJSON(opts *FormatterOptions, v any) error {
	encoder := json.NewEncoder(opts.Writer)
	if !opts.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*YAMLFormatter)(nil)
var _ Formatter = (*SARIFFormatter)(nil)
var _ Formatter = (*TextFormatter)(nil)
