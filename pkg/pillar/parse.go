package pillar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML document into an ordered map. An empty
// document yields an empty map.
func ParseYAML(data []byte) (*Map, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if root.Kind == 0 {
		return NewMap(), nil
	}

	v, err := fromNode(&root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	m, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("failed to parse YAML: top level must be a mapping")
	}
	return m, nil
}

// ParseJSONC strips comments and trailing commas from data and decodes
// the remaining JSON. JSON is a subset of YAML, so key order survives
// through the same node decoder.
func ParseJSONC(data []byte) (*Map, error) {
	m, err := ParseYAML(jsonc.ToJSON(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSONC: %w", err)
	}
	return m, nil
}

// ReadFile reads a pillar file from disk. Files ending in .json or
// .jsonc are parsed as JSONC, everything else as YAML.
func ReadFile(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		m, err := ParseJSONC(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return m, nil
	default:
		m, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return m, nil
	}
}

// DecodeValue decodes a single YAML value of any shape: scalar, sequence
// or mapping. Mappings come back as *Map. An empty document decodes to nil.
func DecodeValue(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return nil, nil
	}
	return fromNode(&root)
}
