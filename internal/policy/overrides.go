package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/apigov/internal/governance"
)

type overridesFile struct {
	Overrides []governance.OverrideEntry `yaml:"overrides"`
}

// ParseOverrides decodes an override list. Both a top-level overrides key
// and a bare sequence are accepted. Entries are not validated here.
func ParseOverrides(data []byte) ([]governance.OverrideEntry, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("unmarshal overrides: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var entries []governance.OverrideEntry
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode overrides: %w", err)
		}
		return entries, nil
	case yaml.MappingNode:
		var f overridesFile
		if err := root.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode overrides: %w", err)
		}
		return f.Overrides, nil
	default:
		return nil, fmt.Errorf("decode overrides: expected a list or an overrides mapping")
	}
}

// LoadOverrides reads an override file. An empty path yields no entries.
func LoadOverrides(path string) ([]governance.OverrideEntry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides file: %w", err)
	}
	return ParseOverrides(data)
}
