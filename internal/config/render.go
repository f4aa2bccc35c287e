package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ScriptElementID is the id of the script element that carries the rendered
// configuration.
const ScriptElementID = "jupyter-config-data"

// Render encodes v as indented JSON with sorted keys. <, > and & are
// escaped so a value cannot close the script element it is embedded in.
func Render(v Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToAny(v)); err != nil {
		return nil, fmt.Errorf("render page config: %w", err)
	}
	return buf.Bytes(), nil
}
