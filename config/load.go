//go:build !tinygo

package config

import (
	"encoding/json"
	"os"
)

// Load parses a JSON board description, fills in defaults and
// validates it.
func Load(jsonData []byte) (*Board, error) {
	var b Board
	if err := json.Unmarshal(jsonData, &b); err != nil {
		return nil, err
	}
	applyDefaults(&b)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// LoadFile reads and parses a board file.
func LoadFile(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}
