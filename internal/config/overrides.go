package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadOverrides reads a YAML or JSON overrides file. The document must be a
// mapping; an empty file yields an empty Mapping.
func LoadOverrides(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}
	m, err := ParseOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseOverrides decodes YAML or JSON override data.
func ParseOverrides(data []byte) (Mapping, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Mapping{}, nil
		}
		return nil, fmt.Errorf("failed to parse overrides: %w", err)
	}
	m, _ := FromAny(raw).(Mapping)
	if m == nil {
		m = Mapping{}
	}
	return m, nil
}
