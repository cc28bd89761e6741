// Package policy loads governance configuration and override files.
package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/apigov/internal/governance"
)

// DefaultFile is the config file looked up when no path is given.
const DefaultFile = ".apigov.yaml"

// Environment knobs applied after the config file and before flags.
const (
	EnvEnforcement = "APIGOV_ENFORCEMENT"
	EnvWindowDays  = "APIGOV_DEPRECATION_WINDOW_DAYS"
)

// configFile mirrors governance.Config with optional fields so that keys
// absent from the file keep their defaults.
type configFile struct {
	DocsOnlyPatterns      []string `yaml:"docsOnlyPatterns"`
	IgnoreOrdering        *bool    `yaml:"ignoreOrdering"`
	DeprecationFields     []string `yaml:"deprecationFields"`
	DeprecationWindowDays *int     `yaml:"deprecationWindowDays"`
	Enforcement           *string  `yaml:"enforcement"`
}

// ParseConfig decodes a YAML config on top of the defaults. Unknown keys are
// rejected. The result is not validated.
func ParseConfig(data []byte) (governance.Config, error) {
	cfg := governance.DefaultConfig()

	var f configFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if f.DocsOnlyPatterns != nil {
		cfg.DocsOnlyPatterns = f.DocsOnlyPatterns
	}
	if f.IgnoreOrdering != nil {
		cfg.IgnoreOrdering = *f.IgnoreOrdering
	}
	if f.DeprecationFields != nil {
		cfg.DeprecationFields = f.DeprecationFields
	}
	if f.DeprecationWindowDays != nil {
		cfg.DeprecationWindowDays = *f.DeprecationWindowDays
	}
	if f.Enforcement != nil {
		cfg.Enforcement = governance.Enforcement(strings.ToLower(strings.TrimSpace(*f.Enforcement)))
	}
	return cfg, nil
}

// LoadConfig reads a config file. An empty path yields the defaults.
func LoadConfig(path string) (governance.Config, error) {
	if path == "" {
		return governance.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return governance.Config{}, fmt.Errorf("read config file: %w", err)
	}
	return ParseConfig(data)
}

// SaveConfig writes cfg as YAML.
func SaveConfig(cfg governance.Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays the environment knobs read through getenv.
func ApplyEnv(cfg *governance.Config, getenv func(string) string) error {
	if v := getenv(EnvEnforcement); v != "" {
		mode, err := governance.ParseEnforcement(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvEnforcement, err)
		}
		cfg.Enforcement = mode
	}
	if v := getenv(EnvWindowDays); v != "" {
		days, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer, got %q", governance.ErrInvalidConfig, EnvWindowDays, v)
		}
		cfg.DeprecationWindowDays = days
	}
	return nil
}

// Flags are explicit command-line settings. Zero values leave the config
// untouched.
type Flags struct {
	Enforcement string
	WindowDays  *int
}

func (f Flags) apply(cfg *governance.Config) error {
	if f.Enforcement != "" {
		mode, err := governance.ParseEnforcement(f.Enforcement)
		if err != nil {
			return err
		}
		cfg.Enforcement = mode
	}
	if f.WindowDays != nil {
		cfg.DeprecationWindowDays = *f.WindowDays
	}
	return nil
}

// Resolve builds the effective config: defaults, then the file at path,
// then the environment, then flags. The result is validated.
func Resolve(path string, getenv func(string) string, flags Flags) (governance.Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return governance.Config{}, err
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := ApplyEnv(&cfg, getenv); err != nil {
		return governance.Config{}, err
	}
	if err := flags.apply(&cfg); err != nil {
		return governance.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return governance.Config{}, err
	}
	return cfg, nil
}

// DiscoverConfig returns DefaultFile when it exists in the working directory,
// or the empty string.
func DiscoverConfig() string {
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}
