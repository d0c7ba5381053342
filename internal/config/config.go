// Package config loads and writes the bins.json cluster topology document
// (spec §6.3): the list of back-end addresses in ring order and keeper
// addresses in index order that every launcher reads at startup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxBacks and MaxKeepers bound a topology document (spec §6.3).
const (
	MaxBacks   = 300
	MaxKeepers = 10

	// DefaultPath is the default config file name.
	DefaultPath = "bins.json"
)

// Topology is the bins.json document: back-end endpoints in ring order and
// keeper endpoints in index order.
type Topology struct {
	Backs   []string `json:"backs"`
	Keepers []string `json:"keepers"`
}

// Validate checks the size bounds from spec §6.3.
func (t Topology) Validate() error {
	if len(t.Backs) == 0 {
		return fmt.Errorf("config: backs must not be empty")
	}
	if len(t.Backs) > MaxBacks {
		return fmt.Errorf("config: %d backs exceeds maximum of %d", len(t.Backs), MaxBacks)
	}
	if len(t.Keepers) > MaxKeepers {
		return fmt.Errorf("config: %d keepers exceeds maximum of %d", len(t.Keepers), MaxKeepers)
	}
	return nil
}

// Load reads and validates a Topology from the file at path. A .yaml or
// .yml extension is parsed as YAML; anything else is parsed as JSON. "-" is
// treated as an ordinary file name, not as stdin.
func Load(path string) (Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Topology{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var t Topology
	if isYAMLPath(path) {
		err = yaml.Unmarshal(data, &t)
	} else {
		err = json.Unmarshal(data, &t)
	}
	if err != nil {
		return Topology{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Topology{}, err
	}
	return t, nil
}

// Save writes t to path, creating or truncating the file. The encoding
// follows the same extension rule as Load.
func Save(path string, t Topology) error {
	if err := t.Validate(); err != nil {
		return err
	}

	var data []byte
	var err error
	if isYAMLPath(path) {
		data, err = yaml.Marshal(t)
	} else {
		data, err = json.MarshalIndent(t, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func isYAMLPath(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}
