package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Decode parses a scene document. Unknown fields are rejected so typos in
// hand-written scenes do not silently fall back to zero values.
func Decode(data []byte) (SceneConfig, error) {
	var cfg SceneConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return SceneConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadFile reads and decodes a scene file.
func LoadFile(path string) (SceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SceneConfig{}, fmt.Errorf("failed to read scene %s: %w", path, err)
	}
	cfg, err := Decode(data)
	if err != nil {
		return SceneConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
