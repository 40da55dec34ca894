package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/landscape/assets"
	"github.com/MeKo-Tech/landscape/internal/scene"
	"github.com/spf13/cobra"
)

var presetCmd = &cobra.Command{
	Use:   "preset [name]",
	Short: "Print a bundled scene as JSON",
	Long: `Print a bundled scene as JSON, ready to edit and pass back with --scene.
Without a name the default scene is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreset,
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.Flags().Bool("list", false, "List bundled preset names")
}

func runPreset(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if list, _ := cmd.Flags().GetBool("list"); list {
		_, err := fmt.Fprintln(out, strings.Join(assets.PresetNames(), "\n"))
		return err
	}

	name := assets.DefaultPreset
	if len(args) == 1 {
		name = args[0]
	}
	data, err := presetJSON(name)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// presetJSON returns the preset re-encoded with normalized defaults filled in.
func presetJSON(name string) ([]byte, error) {
	raw, err := assets.Preset(name)
	if err != nil {
		return nil, err
	}
	cfg, err := scene.Decode(raw)
	if err != nil {
		return nil, err
	}
	n, err := scene.Normalize(cfg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
