// Package gallery stores rendered landscapes in a SQLite database keyed by
// the hash of the scene and render options that produced them.
package gallery

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no render is stored under a key.
var ErrNotFound = errors.New("render not found")

// Entry is one stored render.
type Entry struct {
	CreatedAt time.Time
	Key       string
	Format    string
	Config    []byte // normalized scene JSON
	Data      []byte // encoded image; empty in List results
	Width     int
	Height    int
	Seed      int64
}

// Metadata describes the gallery database itself.
type Metadata struct {
	Name        string
	Description string
	Version     string
}

// ToMap converts Metadata to name/value rows, skipping empty fields.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)
	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Version != "" {
		result["version"] = m.Version
	}
	return result
}
