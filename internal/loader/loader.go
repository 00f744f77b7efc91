// Package loader reads test definitions from configuration files.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

// File is the on-disk layout of a definitions file.
type File struct {
	Tests []model.TestDefinition `yaml:"tests"`
}

// Load reads and validates test definitions from a YAML file.
func Load(path string) ([]model.TestDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definitions file: %w", err)
	}

	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Parse decodes a definitions document. Unknown fields are rejected so
// typos surface at startup instead of silently dropping configuration.
func Parse(data []byte) ([]model.TestDefinition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing definitions: %w", err)
	}

	seen := make(map[string]bool)
	for i := range f.Tests {
		def := &f.Tests[i]
		def.Normalize()
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("test %d (%s): %w", i, def.ID, err)
		}
		if seen[def.ID] {
			return nil, fmt.Errorf("duplicate test id %q", def.ID)
		}
		seen[def.ID] = true
	}
	return f.Tests, nil
}
