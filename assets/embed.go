// Package assets embeds the bundled scene presets.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed scenes/*.json
var ScenesFS embed.FS

// DefaultPreset is the preset matching scene.Default().
const DefaultPreset = "dusk"

// PresetNames lists the bundled presets, sorted.
func PresetNames() []string {
	entries, err := fs.ReadDir(ScenesFS, "scenes")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// Preset returns the raw JSON of the named preset.
func Preset(name string) ([]byte, error) {
	data, err := ScenesFS.ReadFile(path.Join("scenes", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return data, nil
}
