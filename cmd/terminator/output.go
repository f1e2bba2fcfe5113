package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cuemby/terminator/pkg/pillar"
	"gopkg.in/yaml.v3"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

// readPillar reads a pillar file, or stdin when path is "-"
func readPillar(path string, stdin io.Reader) (*pillar.Map, error) {
	if path != "-" {
		return pillar.ReadFile(path)
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return pillar.ParseYAML(data)
}

// writeValue encodes v to out in the requested format
func writeValue(out io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use yaml or json)", format)
	}
}

// readValueFile reads a value for the store from a file, or stdin for "-"
func readValueFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
